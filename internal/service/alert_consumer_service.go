// FILE: internal/service/alert_consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/internal/pkg/mailer"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
)

// IAlertConsumerService drains the security-alert topic: every alert is
// logged; email notification is deduplicated per alert class so a burst of
// identical violations produces one page, not hundreds.
type IAlertConsumerService interface {
	Consume(ctx context.Context) error
}

type alertConsumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	alertLogger  logger.ILogger
	emailService mailer.IEmailService
	alertTo      string
	dedup        *cache.Cache
}

func NewAlertConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	alertLogger logger.ILogger,
	emailService mailer.IEmailService,
	alertTo string,
	dedupWindow time.Duration,
) IAlertConsumerService {
	return &alertConsumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		alertLogger:  alertLogger,
		emailService: emailService,
		alertTo:      alertTo,
		dedup:        cache.New(dedupWindow, 2*dedupWindow),
	}
}

func (cs *alertConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *alertConsumerService) processMessage(msg *message.Message) {
	var alert dto.SecurityAlertMessage
	if err := json.Unmarshal(msg.Payload, &alert); err != nil {
		cs.alertLogger.Warn("alert", "dropping malformed alert message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed payloads never become valid on retry
		return
	}

	cs.alertLogger.Error("alert", "security alert", map[string]interface{}{
		"class":      alert.Class,
		"summary":    alert.Summary,
		"query_id":   alert.QueryID,
		"patient_id": alert.PatientID,
	})

	if cs.emailService != nil && cs.alertTo != "" {
		if _, suppressed := cs.dedup.Get(alert.Class); !suppressed {
			cs.dedup.SetDefault(alert.Class, struct{}{})
			if err := cs.emailService.SendSecurityAlert(cs.alertTo, alert.Class, alert.Summary); err != nil {
				cs.alertLogger.Warn("alert", "failed to send alert email", map[string]interface{}{
					"class": alert.Class,
					"error": err.Error(),
				})
			}
		}
	}

	msg.Ack()
}

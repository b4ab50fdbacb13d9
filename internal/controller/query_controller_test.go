package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"clinical-assist-be/internal/dto"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/internal/pkg/serverutils"
	"clinical-assist-be/pkg/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQueryService struct {
	handleCalls int
	rejectCalls int
}

func (s *stubQueryService) HandleQuery(ctx context.Context, principal authz.Principal, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	s.handleCalls++
	return &dto.QueryResponse{QueryID: uuid.New(), Answer: "ok"}, nil
}

func (s *stubQueryService) RejectMalformedBody(ctx context.Context, principal authz.Principal) error {
	s.rejectCalls++
	return errs.Validation("", "malformed request body")
}

func queryTestApp(svc *stubQueryService) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: serverutils.NewErrorHandler(logger.NewNopLogger()),
	})
	setPrincipal := func(ctx *fiber.Ctx) error {
		ctx.Locals(serverutils.PrincipalKey, authz.Principal{
			ID:    uuid.New(),
			Roles: []authz.Role{authz.RoleAttending},
		})
		return ctx.Next()
	}
	NewQueryController(svc).RegisterRoutes(app.Group("/api"), setPrincipal)
	return app
}

func TestQueryMalformedBodyStillHitsTheService(t *testing.T) {
	svc := &stubQueryService{}
	app := queryTestApp(svc)

	req := httptest.NewRequest("POST", "/api/query/v1", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Equal(t, 1, svc.rejectCalls, "the rejection must go through the audited path")
	assert.Zero(t, svc.handleCalls)

	var body serverutils.ErrorEnvelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation", body.Code)
}

func TestQueryWellFormedBodyReachesHandleQuery(t *testing.T) {
	svc := &stubQueryService{}
	app := queryTestApp(svc)

	req := httptest.NewRequest("POST", "/api/query/v1",
		strings.NewReader(`{"patient_id":"P1","question":"What medications is the patient on?"}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, 1, svc.handleCalls)
	assert.Zero(t, svc.rejectCalls)
}

// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"os"
	"time"

	"clinical-assist-be/pkg/authz"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PrincipalKey is the Locals key the middleware stores the caller under.
const PrincipalKey = "principal"

// NewJwtMiddleware verifies the bearer token, checks the jti against the
// revocation denylist when redis is wired, and materializes the caller as an
// authz.Principal. Signature verification is trusted here; patient-level
// access is decided later by the policy, never by this middleware.
func NewJwtMiddleware(rdb *redis.Client) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("unauthorized", "Missing token"))
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("unauthorized", "Invalid token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("unauthorized", "Invalid claims"))
		}

		if rdb != nil {
			if jti, _ := claims["jti"].(string); jti != "" {
				revoked, err := rdb.Exists(ctx.Context(), "revoked_jti:"+jti).Result()
				if err == nil && revoked > 0 {
					return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("unauthorized", "Token revoked"))
				}
			}
		}

		principal, ok := principalFromClaims(claims)
		if !ok {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("unauthorized", "Invalid claims"))
		}

		ctx.Locals(PrincipalKey, principal)
		return ctx.Next()
	}
}

// RevokeToken puts a jti on the denylist until the token would have expired
// anyway.
func RevokeToken(ctx *fiber.Ctx, rdb *redis.Client, jti string, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	return rdb.Set(ctx.Context(), "revoked_jti:"+jti, "1", ttl).Err()
}

func principalFromClaims(claims jwt.MapClaims) (authz.Principal, bool) {
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return authz.Principal{}, false
	}

	var roles []authz.Role
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if s, ok := r.(string); ok {
				roles = append(roles, authz.ParseRole(s))
			}
		}
	}

	patients := make(map[string]struct{})
	if rawPatients, ok := claims["patients"].([]interface{}); ok {
		for _, p := range rawPatients {
			if s, ok := p.(string); ok && s != "" {
				patients[s] = struct{}{}
			}
		}
	}

	return authz.Principal{
		ID:               id,
		Roles:            roles,
		AssignedPatients: patients,
	}, true
}

// PrincipalFromCtx fetches what the middleware stored. The bool is false on
// routes that forgot the middleware; handlers must treat that as unauthorized.
func PrincipalFromCtx(ctx *fiber.Ctx) (authz.Principal, bool) {
	p, ok := ctx.Locals(PrincipalKey).(authz.Principal)
	return p, ok
}

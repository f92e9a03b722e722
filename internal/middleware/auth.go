package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/service"
)

const claimsContextKey = "token_claims"

// Authenticator verifies bearer tokens and resolves the calling user.
type Authenticator struct {
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	users      service.UserService
	log        *slog.Logger
}

// NewAuthenticator creates the bearer token gate.
func NewAuthenticator(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, users service.UserService, log *slog.Logger) *Authenticator {
	return &Authenticator{
		jwtService: jwtService,
		tokenStore: tokenStore,
		users:      users,
		log:        log,
	}
}

// RequireAuth rejects requests without a valid bearer token and attaches
// the caller's Identity to the request context. The user is loaded again on
// every request so role changes and deletions take effect immediately.
func (a *Authenticator) RequireAuth() echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		TokenLookup:    "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:     claimsContextKey,
		ParseTokenFunc: a.parseToken,
		ErrorHandler:   a.tokenError,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(a.resolveIdentity(next))
	}
}

func (a *Authenticator) parseToken(c echo.Context, raw string) (interface{}, error) {
	claims, err := a.jwtService.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := a.tokenStore.IsRevoked(c.Request().Context(), claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

func (a *Authenticator) tokenError(c echo.Context, err error) error {
	var parseErr *echojwt.TokenParsingError
	if errors.As(err, &parseErr) {
		return fail(errors.ErrInvalidToken)
	}
	return fail(errors.ErrUnauthorized)
}

func (a *Authenticator) resolveIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsContextKey).(*auth.Claims)
		if !ok {
			return fail(errors.ErrInvalidToken)
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return fail(errors.ErrInvalidToken)
		}

		ctx := c.Request().Context()
		user, err := a.users.GetUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, errors.ErrUserNotFound) {
				a.log.ErrorContext(ctx, "resolve identity failed",
					"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
					"user_id", userID.String(),
					"error", err)
			}
			return fail(err)
		}

		ctx = auth.WithClaims(ctx, claims)
		ctx = auth.WithIdentity(ctx, auth.IdentityFromUser(user))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// fail converts a domain error into the JSON error response.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

package echoapi

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/raport/core"
	"github.com/trezcool/raport/core/school"
)

const (
	tokenContextKey = "userToken"
	tokenAudience   = "Raport"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Role         string `json:"role"`
	Teacher      string `json:"teacher,omitempty"`
	Class        string `json:"class,omitempty"`
	Subject      string `json:"subject,omitempty"`
}

func (c Claims) Actor() core.Actor {
	return core.Actor{Role: c.Role, Teacher: c.Teacher, Class: c.Class, Subject: c.Subject}
}

type authenticator struct {
	conf      *core.Config
	svc       *school.Service
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config, svc *school.Service) *authenticator {
	return &authenticator{
		conf: conf,
		svc:  svc,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// NewClaims returns the claims of a token issued to actor.
// origIat is the issue time of the first token of the session, when refreshing.
func NewClaims(conf *core.Config, actor core.Actor, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   actor.ID(),
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         actor.Role,
		Teacher:      actor.Teacher,
		Class:        actor.Class,
		Subject:      actor.Subject,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (a *authenticator) authenticate(ctx context.Context, req LoginRequest) (*Claims, error) {
	actor := core.Actor{Role: req.Role}

	switch req.Role {
	case core.RoleAdmin:
		if !a.checkAdminPassword(req.Password) {
			return nil, errAuthenticationFailed
		}
		return NewClaims(a.conf, actor), nil
	case core.RoleTeacher, core.RoleHomeroom:
	default:
		return nil, errAuthenticationFailed
	}

	if !a.checkStaffPassword(req.Password) {
		return nil, errAuthenticationFailed
	}

	actor.Teacher, actor.Class = req.Teacher, req.Class
	if err := a.requireCatalog(ctx, "teacher", req.Teacher, a.svc.HasTeacher); err != nil {
		return nil, err
	}
	if err := a.requireCatalog(ctx, "class", req.Class, a.svc.HasClass); err != nil {
		return nil, err
	}

	if req.Role == core.RoleTeacher {
		if err := a.requireCatalog(ctx, "subject", req.Subject, a.svc.HasSubject); err != nil {
			return nil, err
		}
		actor.Subject = req.Subject
		return NewClaims(a.conf, actor), nil
	}

	// another teacher already is the homeroom of this class
	hr, err := a.svc.HomeroomFor(ctx, req.Class)
	if err != nil {
		return nil, errors.Wrap(err, "getting homeroom")
	}
	if hr != "" && hr != req.Teacher {
		return nil, errNotHomeroom
	}
	return NewClaims(a.conf, actor), nil
}

func (a *authenticator) requireCatalog(ctx context.Context, field, name string, has func(context.Context, string) (bool, error)) error {
	if name == "" {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: field + " is required"})
	}
	ok, err := has(ctx, name)
	if err != nil {
		return errors.Wrap(err, "checking "+field)
	}
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "unknown " + field})
	}
	return nil
}

func (a *authenticator) checkAdminPassword(pwd string) bool {
	if a.conf.Auth.AdminPasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(a.conf.Auth.AdminPasswordHash), []byte(pwd)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(a.conf.Auth.AdminPassword), []byte(pwd)) == 1
}

// checkStaffPassword accepts any password when no staff password is configured.
func (a *authenticator) checkStaffPassword(pwd string) bool {
	if a.conf.Auth.StaffPasswordHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(a.conf.Auth.StaffPasswordHash), []byte(pwd)) == nil
}

func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(a.conf, NewClaims(a.conf, claims.Actor(), claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (core.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Actor{}, err
	}
	return claims.Actor(), nil
}

// Code scaffolded in the goctl style. Safe to edit.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/arcauth/gateway/internal/controlapi/svc"
)

// RegisterHandlers assembles every control API route, grouped by prefix
// and middleware the way goctl emits them from separate `@server` blocks
// in one .api file: public auth under an auth rate limit, admin routes
// behind the admin JWT, external routes behind a scoped API key and its
// own rate limit.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{svcCtx.AuthRateLimit},
			[]rest.Route{
				{Method: http.MethodPost, Path: "/auth/register", Handler: RegisterHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/register/verify", Handler: RegisterVerifyHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/login/init", Handler: LoginInitHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/login/verify", Handler: LoginVerifyHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/refresh", Handler: RefreshHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/password/reset", Handler: PasswordResetHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/password/reset/confirm", Handler: PasswordResetConfirmHandler(svcCtx)},
				{Method: http.MethodGet, Path: "/auth/captcha", Handler: CaptchaHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/admin/login", Handler: AdminLoginHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/auth/admin/register", Handler: AdminCreateHandler(svcCtx)},
			}...,
		),
	)

	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{svcCtx.AdminAuth.Handle},
			[]rest.Route{
				{Method: http.MethodGet, Path: "/api/admin/stats", Handler: StatsHandler(svcCtx)},
				{Method: http.MethodGet, Path: "/api/admin/me", Handler: AdminMeHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/api/admin/password", Handler: AdminPasswordHandler(svcCtx)},

				{Method: http.MethodGet, Path: "/api/admin/routes", Handler: ListRoutesHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/api/admin/routes", Handler: CreateRouteHandler(svcCtx)},
				{Method: http.MethodPut, Path: "/api/admin/routes/:id", Handler: UpdateRouteHandler(svcCtx)},
				{Method: http.MethodDelete, Path: "/api/admin/routes/:id", Handler: DeleteRouteHandler(svcCtx)},

				{Method: http.MethodGet, Path: "/api/admin/rate-limits", Handler: ListRateLimitsHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/api/admin/rate-limits", Handler: CreateRateLimitHandler(svcCtx)},
				{Method: http.MethodPut, Path: "/api/admin/rate-limits/:id", Handler: UpdateRateLimitHandler(svcCtx)},
				{Method: http.MethodDelete, Path: "/api/admin/rate-limits/:id", Handler: DeleteRateLimitHandler(svcCtx)},

				{Method: http.MethodPost, Path: "/api/admin/smtp", Handler: UpdateSMTPHandler(svcCtx)},
				{Method: http.MethodPost, Path: "/api/admin/secret/rotate", Handler: RotateSecretHandler(svcCtx)},

				{Method: http.MethodPost, Path: "/api/admin/api-keys", Handler: ApiKeyCreateHandler(svcCtx)},
				{Method: http.MethodGet, Path: "/api/admin/api-keys", Handler: ApiKeyListHandler(svcCtx)},
				{Method: http.MethodDelete, Path: "/api/admin/api-keys/:id", Handler: ApiKeyDeleteHandler(svcCtx)},
			}...,
		),
	)

	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{svcCtx.ApiKeyRateLimit, svcCtx.ExternalStatsAuth},
			[]rest.Route{
				{Method: http.MethodGet, Path: "/api/external/stats", Handler: StatsHandler(svcCtx)},
			}...,
		),
	)
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{svcCtx.ApiKeyRateLimit, svcCtx.ExternalUsersAuth},
			[]rest.Route{
				{Method: http.MethodGet, Path: "/api/external/users", Handler: ListUsersHandler(svcCtx)},
			}...,
		),
	)
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{svcCtx.ApiKeyRateLimit, svcCtx.ExternalRoutesAuth},
			[]rest.Route{
				{Method: http.MethodGet, Path: "/api/external/routes", Handler: ListExternalRoutesHandler(svcCtx)},
			}...,
		),
	)
}

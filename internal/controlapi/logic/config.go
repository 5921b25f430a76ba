package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
	"github.com/arcauth/gateway/internal/routecache"
	"github.com/arcauth/gateway/internal/store"
	"github.com/arcauth/gateway/internal/systemconfig"
)

// reloadDynamicRoutes refreshes the route cache's mutable table after any
// write, so a write through the control API takes effect without a
// gateway restart (spec §4.1 "Updates"; §12.2).
func reloadDynamicRoutes(ctx context.Context, svcCtx *svc.ServiceContext) error {
	routes, err := svcCtx.RouteStore.ListAll(ctx)
	if err != nil {
		return err
	}
	svcCtx.Routes.SetDynamicRoutes(routes)
	return nil
}

type ListRoutesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListRoutesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListRoutesLogic {
	return &ListRoutesLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ListRoutesLogic) List() (*types.RouteListResponse, error) {
	routes, err := l.svcCtx.RouteStore.ListAll(l.ctx)
	if err != nil {
		return nil, apierr.Internal()
	}
	out := make([]types.RouteResponse, len(routes))
	for i, r := range routes {
		out[i] = toRouteResponse(r)
	}
	return &types.RouteListResponse{Routes: out}, nil
}

type CreateRouteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateRouteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateRouteLogic {
	return &CreateRouteLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CreateRouteLogic) Create(req *types.RouteRequest) (*types.RouteResponse, error) {
	route, err := l.svcCtx.RouteStore.Create(l.ctx, routecache.Route{
		PathPrefix:      req.PathPrefix,
		UpstreamAddress: req.UpstreamAddress,
		RequireAuth:     req.RequireAuth,
		StripPrefix:     req.StripPrefix,
		Enabled:         req.Enabled,
	})
	if err != nil {
		return nil, apierr.Internal()
	}
	if err := reloadDynamicRoutes(l.ctx, l.svcCtx); err != nil {
		return nil, apierr.Internal()
	}
	resp := toRouteResponse(route)
	return &resp, nil
}

type UpdateRouteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUpdateRouteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateRouteLogic {
	return &UpdateRouteLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *UpdateRouteLogic) Update(req *types.RouteRequest) (*types.RouteResponse, error) {
	route := routecache.Route{
		ID:              req.ID,
		PathPrefix:      req.PathPrefix,
		UpstreamAddress: req.UpstreamAddress,
		RequireAuth:     req.RequireAuth,
		StripPrefix:     req.StripPrefix,
		Enabled:         req.Enabled,
	}
	if err := l.svcCtx.RouteStore.Update(l.ctx, route); err != nil {
		return nil, apierr.Internal()
	}
	if err := reloadDynamicRoutes(l.ctx, l.svcCtx); err != nil {
		return nil, apierr.Internal()
	}
	resp := toRouteResponse(route)
	return &resp, nil
}

type DeleteRouteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteRouteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteRouteLogic {
	return &DeleteRouteLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *DeleteRouteLogic) Delete(req *types.RouteIDRequest) (*types.OkResponse, error) {
	if err := l.svcCtx.RouteStore.Delete(l.ctx, req.ID); err != nil {
		return nil, apierr.Internal()
	}
	if err := reloadDynamicRoutes(l.ctx, l.svcCtx); err != nil {
		return nil, apierr.Internal()
	}
	return &types.OkResponse{Success: true}, nil
}

func toRouteResponse(r routecache.Route) types.RouteResponse {
	return types.RouteResponse{
		ID:              r.ID,
		PathPrefix:      r.PathPrefix,
		UpstreamAddress: r.UpstreamAddress,
		RequireAuth:     r.RequireAuth,
		StripPrefix:     r.StripPrefix,
		Enabled:         r.Enabled,
	}
}

// Rate-limit rule CRUD mirrors route CRUD, but persistence-only per open
// question (c): these rows configure the record of intended limits; the
// in-memory internal/ratelimit.Limiter instances are constructed once at
// boot from internal/config and are not re-parameterized live. See
// DESIGN.md.

type ListRateLimitsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewListRateLimitsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListRateLimitsLogic {
	return &ListRateLimitsLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ListRateLimitsLogic) List() (*types.RateLimitRuleListResponse, error) {
	rules, err := l.svcCtx.RuleStore.ListAll(l.ctx)
	if err != nil {
		return nil, apierr.Internal()
	}
	out := make([]types.RateLimitRuleResponse, len(rules))
	for i, r := range rules {
		out[i] = toRateLimitResponse(r)
	}
	return &types.RateLimitRuleListResponse{Rules: out}, nil
}

type CreateRateLimitLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCreateRateLimitLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateRateLimitLogic {
	return &CreateRateLimitLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CreateRateLimitLogic) Create(req *types.RateLimitRuleRequest) (*types.RateLimitRuleResponse, error) {
	rule, err := l.svcCtx.RuleStore.Create(l.ctx, store.RateLimitRule{
		Name: req.Name, PathPattern: req.PathPattern, LimitBy: req.LimitBy,
		MaxRequests: req.MaxRequests, WindowSecs: req.WindowSecs, Enabled: req.Enabled,
	})
	if err != nil {
		return nil, apierr.Internal()
	}
	resp := toRateLimitResponse(rule)
	return &resp, nil
}

type UpdateRateLimitLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUpdateRateLimitLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateRateLimitLogic {
	return &UpdateRateLimitLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *UpdateRateLimitLogic) Update(req *types.RateLimitRuleRequest) (*types.RateLimitRuleResponse, error) {
	rule := store.RateLimitRule{
		ID: req.ID, Name: req.Name, PathPattern: req.PathPattern, LimitBy: req.LimitBy,
		MaxRequests: req.MaxRequests, WindowSecs: req.WindowSecs, Enabled: req.Enabled,
	}
	if err := l.svcCtx.RuleStore.Update(l.ctx, rule); err != nil {
		return nil, apierr.Internal()
	}
	resp := toRateLimitResponse(rule)
	return &resp, nil
}

type DeleteRateLimitLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteRateLimitLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteRateLimitLogic {
	return &DeleteRateLimitLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *DeleteRateLimitLogic) Delete(req *types.RouteIDRequest) (*types.OkResponse, error) {
	if err := l.svcCtx.RuleStore.Delete(l.ctx, req.ID); err != nil {
		return nil, apierr.Internal()
	}
	return &types.OkResponse{Success: true}, nil
}

func toRateLimitResponse(r store.RateLimitRule) types.RateLimitRuleResponse {
	return types.RateLimitRuleResponse{
		ID: r.ID, Name: r.Name, PathPattern: r.PathPattern, LimitBy: r.LimitBy,
		MaxRequests: r.MaxRequests, WindowSecs: r.WindowSecs, Enabled: r.Enabled,
	}
}

// UpdateSMTPLogic writes new SMTP delivery settings to the system-config
// singleton (spec §3). internal/mailer reads them back on its next send
// through the SettingsSource indirection, never caching them itself.
type UpdateSMTPLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUpdateSMTPLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateSMTPLogic {
	return &UpdateSMTPLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *UpdateSMTPLogic) Update(req *types.SMTPConfigRequest) (*types.OkResponse, error) {
	if err := l.svcCtx.SystemConfig.UpdateSMTP(l.ctx, systemconfig.SystemConfig{
		SMTPHost: req.Host, SMTPPort: req.Port, SMTPUsername: req.Username,
		SMTPPassword: req.Password, FromEmail: req.FromEmail, FromName: req.FromName,
	}); err != nil {
		return nil, apierr.Internal()
	}
	return &types.OkResponse{Success: true}, nil
}

// RotateSecretLogic triggers an unconditional signing-secret rotation,
// gated by the literal confirmation string from spec §6.
type RotateSecretLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRotateSecretLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RotateSecretLogic {
	return &RotateSecretLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RotateSecretLogic) Rotate(req *types.SecretRotateRequest) (*types.OkResponse, error) {
	if req.Confirmation != systemconfig.RotationConfirmation {
		return nil, apierr.InvalidRequest("confirmation string does not match")
	}
	if err := l.svcCtx.SystemConfig.RotateNow(l.ctx); err != nil {
		return nil, apierr.Internal()
	}
	return &types.OkResponse{Success: true}, nil
}

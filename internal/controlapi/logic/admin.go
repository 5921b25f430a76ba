package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/controlapi/middleware"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
	"github.com/arcauth/gateway/internal/identity"
)

// AdminLoginLogic authenticates an admin by username/password (argon2id)
// and issues an admin JWT sharing the rotating signing secret (spec §9
// open question b).
type AdminLoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminLoginLogic {
	return &AdminLoginLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *AdminLoginLogic) Login(req *types.AdminLoginRequest) (*types.AdminLoginResponse, error) {
	admin, err := l.svcCtx.Admins.Authenticate(l.ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	token, err := l.svcCtx.Authority.GenerateAdminToken(admin.ID, admin.Username)
	if err != nil {
		return nil, apierr.Internal()
	}
	return &types.AdminLoginResponse{
		AccessToken: token,
		Admin:       types.AdminProfile{ID: admin.ID, Username: admin.Username},
	}, nil
}

// AdminCreateLogic implements the bootstrap/invite path: an admin account
// may only be created by presenting an unused registration token (spec
// §4.6).
type AdminCreateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminCreateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminCreateLogic {
	return &AdminCreateLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *AdminCreateLogic) Create(req *types.AdminCreateRequest) (*types.AdminProfile, error) {
	admin, err := l.svcCtx.Admins.CreateWithToken(l.ctx, req.Username, req.Password, req.Token)
	if err != nil {
		return nil, err
	}
	return &types.AdminProfile{ID: admin.ID, Username: admin.Username}, nil
}

// AdminMeLogic returns the authenticated admin's own profile (§12.4).
type AdminMeLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminMeLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminMeLogic {
	return &AdminMeLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *AdminMeLogic) Me() (*types.AdminProfile, error) {
	adminID, ok := middleware.AdminIDFromContext(l.ctx)
	if !ok {
		return nil, apierr.MissingToken()
	}
	admin, err := l.svcCtx.Admins.FindByID(l.ctx, adminID)
	if err != nil {
		return nil, err
	}
	return &types.AdminProfile{ID: admin.ID, Username: admin.Username}, nil
}

// AdminPasswordLogic lets an admin rotate their own password (§12.4).
type AdminPasswordLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminPasswordLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminPasswordLogic {
	return &AdminPasswordLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *AdminPasswordLogic) Change(req *types.AdminPasswordChangeRequest) (*types.OkResponse, error) {
	adminID, ok := middleware.AdminIDFromContext(l.ctx)
	if !ok {
		return nil, apierr.MissingToken()
	}
	if err := l.svcCtx.Admins.ChangePassword(l.ctx, adminID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, err
	}
	return &types.OkResponse{Success: true}, nil
}

// ApiKeyCreateLogic mints a new machine API key for the authenticated
// admin; the raw key is returned exactly once (spec §3's ApiKey entity).
type ApiKeyCreateLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewApiKeyCreateLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ApiKeyCreateLogic {
	return &ApiKeyCreateLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ApiKeyCreateLogic) Create(req *types.ApiKeyCreateRequest) (*types.ApiKeyCreateResponse, error) {
	adminID, ok := middleware.AdminIDFromContext(l.ctx)
	if !ok {
		return nil, apierr.MissingToken()
	}
	raw, key, err := l.svcCtx.ApiKeys.Create(l.ctx, adminID, req.Name, req.Permissions)
	if err != nil {
		return nil, err
	}
	return &types.ApiKeyCreateResponse{
		RawKey: raw,
		Key:    toApiKeySummary(*key),
	}, nil
}

type ApiKeyListLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewApiKeyListLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ApiKeyListLogic {
	return &ApiKeyListLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ApiKeyListLogic) List() (*types.ApiKeyListResponse, error) {
	adminID, ok := middleware.AdminIDFromContext(l.ctx)
	if !ok {
		return nil, apierr.MissingToken()
	}
	keys, err := l.svcCtx.ApiKeys.List(l.ctx, adminID)
	if err != nil {
		return nil, err
	}
	out := make([]types.ApiKeySummary, len(keys))
	for i, k := range keys {
		out[i] = toApiKeySummary(k)
	}
	return &types.ApiKeyListResponse{Keys: out}, nil
}

type ApiKeyDeleteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewApiKeyDeleteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ApiKeyDeleteLogic {
	return &ApiKeyDeleteLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *ApiKeyDeleteLogic) Delete(req *types.ApiKeyDeleteRequest) (*types.OkResponse, error) {
	adminID, ok := middleware.AdminIDFromContext(l.ctx)
	if !ok {
		return nil, apierr.MissingToken()
	}
	if err := l.svcCtx.ApiKeys.Delete(l.ctx, req.ID, adminID); err != nil {
		return nil, err
	}
	return &types.OkResponse{Success: true}, nil
}

func toApiKeySummary(k identity.ApiKey) types.ApiKeySummary {
	return types.ApiKeySummary{
		ID:          k.ID,
		Name:        k.Name,
		KeyPrefix:   k.KeyPrefix,
		Permissions: k.Permissions,
	}
}

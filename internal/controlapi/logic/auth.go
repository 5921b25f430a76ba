package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/arcauth/gateway/internal/apierr"
	"github.com/arcauth/gateway/internal/controlapi/svc"
	"github.com/arcauth/gateway/internal/controlapi/types"
	"github.com/arcauth/gateway/internal/identity"
)

// RegisterLogic sends the initial 6-digit registration code.
type RegisterLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegisterLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegisterLogic {
	return &RegisterLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RegisterLogic) Register(req *types.RegisterRequest) (*types.OkResponse, error) {
	if err := l.svcCtx.Users.RequestRegistration(l.ctx, req.Email); err != nil {
		return nil, err
	}
	return &types.OkResponse{Success: true}, nil
}

// RegisterVerifyLogic redeems the code and mints the first token pair.
type RegisterVerifyLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRegisterVerifyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegisterVerifyLogic {
	return &RegisterVerifyLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RegisterVerifyLogic) Verify(req *types.RegisterVerifyRequest) (*types.AuthResponse, error) {
	user, err := l.svcCtx.Users.VerifyRegistration(l.ctx, req.Email, req.Code, req.Salt, req.Verifier)
	if err != nil {
		return nil, err
	}
	return issueTokenPair(l.ctx, l.svcCtx, user, "")
}

// LoginInitLogic begins an SRP-6a exchange (spec §4.3 Init).
type LoginInitLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLoginInitLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginInitLogic {
	return &LoginInitLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LoginInitLogic) Init(req *types.LoginInitRequest) (*types.LoginInitResponse, error) {
	sessionID, salt, serverPublic, err := l.svcCtx.Srp.Init(l.ctx, req.Email, req.ClientPublic)
	if err != nil {
		return nil, err
	}
	return &types.LoginInitResponse{SessionID: sessionID, Salt: salt, ServerPublic: serverPublic}, nil
}

// LoginVerifyLogic completes the SRP-6a exchange (spec §4.3 Verify) and
// issues the access/refresh pair on success.
type LoginVerifyLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLoginVerifyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LoginVerifyLogic {
	return &LoginVerifyLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *LoginVerifyLogic) Verify(req *types.LoginVerifyRequest) (*types.AuthResponse, error) {
	userID, email, serverProof, err := l.svcCtx.Srp.Verify(l.ctx, req.SessionID, req.ClientProof)
	if err != nil {
		return nil, err
	}
	user, err := l.svcCtx.Users.FindByID(l.ctx, userID)
	if err != nil {
		return nil, err
	}
	_ = email
	return issueTokenPair(l.ctx, l.svcCtx, user, serverProof)
}

// RefreshLogic rotates an access/refresh pair, revoking the presented
// refresh token (spec §6's "issues new pair; revokes the presented
// refresh token").
type RefreshLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRefreshLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RefreshLogic {
	return &RefreshLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *RefreshLogic) Refresh(req *types.RefreshRequest) (*types.RefreshResponse, error) {
	claims, err := l.svcCtx.Authority.ValidateRefreshToken(l.ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if err := l.svcCtx.Authority.RevokeRefreshToken(l.ctx, req.RefreshToken); err != nil {
		return nil, apierr.Internal()
	}

	user, err := l.svcCtx.Users.FindByID(l.ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	access, err := l.svcCtx.Authority.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apierr.Internal()
	}
	refresh, err := l.svcCtx.Authority.GenerateRefreshToken(l.ctx, user.ID)
	if err != nil {
		return nil, apierr.Internal()
	}
	return &types.RefreshResponse{AccessToken: access, RefreshToken: refresh}, nil
}

// PasswordResetLogic always reports success, per spec §7's no-enumeration
// invariant.
type PasswordResetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPasswordResetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PasswordResetLogic {
	return &PasswordResetLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *PasswordResetLogic) Reset(req *types.PasswordResetRequest) (*types.OkResponse, error) {
	_ = l.svcCtx.Users.RequestPasswordReset(l.ctx, req.Email)
	return &types.OkResponse{Success: true}, nil
}

type PasswordResetConfirmLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPasswordResetConfirmLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PasswordResetConfirmLogic {
	return &PasswordResetConfirmLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *PasswordResetConfirmLogic) Confirm(req *types.PasswordResetConfirmRequest) (*types.OkResponse, error) {
	if _, err := l.svcCtx.Users.ConfirmPasswordReset(l.ctx, req.Email, req.Code, req.Salt, req.Verifier); err != nil {
		return nil, err
	}
	return &types.OkResponse{Success: true}, nil
}

// CaptchaLogic issues a fresh challenge through the pluggable
// internal/captcha.Generator collaborator (§12.6).
type CaptchaLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCaptchaLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CaptchaLogic {
	return &CaptchaLogic{Logger: logx.WithContext(ctx), ctx: ctx, svcCtx: svcCtx}
}

func (l *CaptchaLogic) Issue() (*types.CaptchaResponse, error) {
	id, image, err := l.svcCtx.Captcha.New(l.ctx)
	if err != nil {
		return nil, apierr.Internal()
	}
	return &types.CaptchaResponse{CaptchaID: id, Image: image}, nil
}

func issueTokenPair(ctx context.Context, svcCtx *svc.ServiceContext, user *identity.User, serverProof string) (*types.AuthResponse, error) {
	access, err := svcCtx.Authority.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apierr.Internal()
	}
	refresh, err := svcCtx.Authority.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, apierr.Internal()
	}
	return &types.AuthResponse{
		User: types.UserProfile{
			ID:            user.ID,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
		},
		ServerProof:  serverProof,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

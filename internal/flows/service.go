package flows

import "context"

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Authenticate.Codec != nil && s.deps.Authenticate.Registry != nil
}

func (s Service) Authenticate(ctx context.Context, header string) AuthenticateResult {
	return RunAuthenticate(ctx, header, s.deps.Authenticate)
}

func (s Service) Login(ctx context.Context, identifier, password string) LoginResult {
	return RunLogin(ctx, identifier, password, s.deps.Login)
}

func (s Service) Reissue(ctx context.Context, accessHeader, refreshToken string) ReissueResult {
	return RunReissue(ctx, accessHeader, refreshToken, s.deps.Reissue)
}

func (s Service) Logout(ctx context.Context, accessHeader string) LogoutResult {
	return RunLogout(ctx, accessHeader, s.deps.Logout)
}

func (s Service) ExpireAll(ctx context.Context, uid int64) ExpireAllResult {
	return RunExpireAll(ctx, uid, s.deps.ExpireAll)
}

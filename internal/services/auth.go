package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

const (
	HomeWorkspaceName         = "Home"
	HomeWorkspaceDescription  = "My home workspace."
	HomeWorkspacePrompt       = "You are a friendly, helpful AI assistant."
	HomeWorkspaceTemperature  = 0.5
	HomeWorkspaceContextLen   = 4096
	DefaultEmbeddingsProvider = "openai"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	Role      string `json:"role,omitempty"`
	SessionID string `json:"sid,omitempty"`
}

type SignInResult struct {
	User         *types.User
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	SignInWithGoogle(ctx context.Context, identity GoogleIdentity, account *types.Account) (*SignInResult, error)
	ProvisionUser(ctx context.Context, identity GoogleIdentity) (*types.User, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	HomeWorkspaceRedirect(ctx context.Context, userID uuid.UUID, next string) (string, error)
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	registry      *llm.Registry
	userRepo      repos.UserRepo
	accountRepo   repos.AccountRepo
	sessionRepo   repos.SessionRepo
	profileRepo   repos.ProfileRepo
	workspaceRepo repos.WorkspaceRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	registry *llm.Registry,
	userRepo repos.UserRepo,
	accountRepo repos.AccountRepo,
	sessionRepo repos.SessionRepo,
	profileRepo repos.ProfileRepo,
	workspaceRepo repos.WorkspaceRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		registry:      registry,
		userRepo:      userRepo,
		accountRepo:   accountRepo,
		sessionRepo:   sessionRepo,
		profileRepo:   profileRepo,
		workspaceRepo: workspaceRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

//----------------------------------------------------------------------------------------------------------------------
// SignInWithGoogle, ProvisionUser
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) SignInWithGoogle(ctx context.Context, identity GoogleIdentity, account *types.Account) (*SignInResult, error) {
	as.log.Info("Starting SignInWithGoogle now...", "email", identity.Email)
	ctx = context.WithoutCancel(ctx)

	//1) Provision
	user, err := as.ProvisionUser(ctx, identity)
	if err != nil {
		return nil, err
	}

	//2) Link Account
	if account != nil {
		if err := as.linkAccount(ctx, user.ID, account); err != nil {
			return nil, err
		}
	}

	//3) Issue Session
	var role string
	if profiles, pErr := as.profileRepo.GetByUserIDs(ctx, nil, []uuid.UUID{user.ID}); pErr == nil && len(profiles) > 0 {
		role = profiles[0].UserRole
	}
	sessionID := uuid.New()
	accessToken, err := as.generateAccessToken(user.ID, sessionID, role)
	if err != nil {
		as.log.Warn("Failed to generate access token, Cannot proceed. Returning error.", "error", err)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	session := &types.Session{
		ID:           sessionID,
		UserID:       user.ID,
		SessionToken: uuid.NewString(),
		AccessToken:  accessToken,
		Expires:      time.Now().Add(as.refreshTTL),
	}
	if _, err := as.sessionRepo.Create(ctx, nil, []*types.Session{session}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	as.log.Info("SignInWithGoogle Successful :)", "userID", user.ID)
	return &SignInResult{User: user, AccessToken: accessToken, RefreshToken: session.SessionToken}, nil
}

func (as *authService) linkAccount(ctx context.Context, userID uuid.UUID, account *types.Account) error {
	existing, err := as.accountRepo.GetByProviderAccount(ctx, nil, account.Provider, account.ProviderAccountID)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if len(existing) > 0 {
		current := existing[0]
		current.AccessToken = account.AccessToken
		current.IDToken = account.IDToken
		current.ExpiresAt = account.ExpiresAt
		current.TokenType = account.TokenType
		current.Scope = account.Scope
		if account.RefreshToken != "" {
			current.RefreshToken = account.RefreshToken
		}
		_, err := as.accountRepo.Update(ctx, nil, []*types.Account{current})
		return err
	}
	account.UserID = userID
	if _, err := as.accountRepo.Create(ctx, nil, []*types.Account{account}); err != nil && !isUniqueViolation(err) {
		return fmt.Errorf("failed to link account: %w", err)
	}
	return nil
}

// refreshIdentity copies a non-empty Google name and picture onto u and
// reports whether either changed.
func refreshIdentity(u *types.User, identity GoogleIdentity) bool {
	changed := false
	if identity.Name != "" && identity.Name != u.Name {
		u.Name = identity.Name
		changed = true
	}
	if identity.Picture != "" && identity.Picture != u.Image {
		u.Image = identity.Picture
		changed = true
	}
	return changed
}

// ProvisionUser returns the user for identity.Email, creating the user, its
// profile and its home workspace in one transaction the first time. Losing
// a concurrent first sign-in on the email constraint is not an error: the
// winner's row is read back and returned.
func (as *authService) ProvisionUser(ctx context.Context, identity GoogleIdentity) (*types.User, error) {
	ctx = context.WithoutCancel(ctx)
	email := utils.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, invalid("email is required")
	}

	var provisioned *types.User
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//1) Existing User
		existing, err := as.userRepo.GetByEmails(ctx, tx, []string{email})
		if err != nil {
			return fmt.Errorf("failed to look up user: %w", err)
		}
		if len(existing) > 0 {
			provisioned = existing[0]
			if refreshIdentity(provisioned, identity) {
				if _, err := as.userRepo.Update(ctx, tx, []*types.User{provisioned}); err != nil {
					return fmt.Errorf("failed to refresh user identity: %w", err)
				}
			}
			return nil
		}

		//2) User
		user := &types.User{Name: identity.Name, Email: email, Image: identity.Picture}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			if isUniqueViolation(err) {
				return errAlreadyProvisioned
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		//3) Profile
		displayName := identity.Name
		if displayName == "" {
			displayName = "User"
		}
		profile := &types.Profile{
			UserID:       user.ID,
			DisplayName:  displayName,
			Username:     "user" + strings.ReplaceAll(user.ID.String(), "-", "")[:8],
			ImageURL:     identity.Picture,
			HasOnboarded: false,
		}
		if _, err := as.profileRepo.Create(ctx, tx, []*types.Profile{profile}); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		//4) Home Workspace
		home := &types.Workspace{
			UserID:                       user.ID,
			Name:                         HomeWorkspaceName,
			Description:                  HomeWorkspaceDescription,
			IsHome:                       true,
			DefaultModel:                 as.registry.DefaultClaudeModelID(),
			DefaultPrompt:                HomeWorkspacePrompt,
			DefaultTemperature:           HomeWorkspaceTemperature,
			DefaultContextLength:         HomeWorkspaceContextLen,
			IncludeProfileContext:        true,
			IncludeWorkspaceInstructions: true,
			EmbeddingsProvider:           DefaultEmbeddingsProvider,
		}
		if _, err := as.workspaceRepo.Create(ctx, tx, []*types.Workspace{home}); err != nil {
			return fmt.Errorf("failed to create home workspace: %w", err)
		}
		provisioned = user
		return nil
	})
	if errors.Is(err, errAlreadyProvisioned) {
		as.log.Info("User provisioned concurrently, reading existing row", "email", email)
		users, rErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
		if rErr != nil {
			return nil, fmt.Errorf("failed to re-read provisioned user: %w", rErr)
		}
		if len(users) == 0 {
			return nil, fmt.Errorf("user %s vanished after unique violation", email)
		}
		return users[0], nil
	}
	if err != nil {
		as.log.Warn("Failed provisioning transaction, Cannot proceed. Returning error.", "error", err)
		return nil, err
	}
	return provisioned, nil
}

//----------------------------------------------------------------------------------------------------------------------
// Refresh, Logout
//----------------------------------------------------------------------------------------------------------------------

// Refresh rotates both tokens of the session that owns refreshToken.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", ErrUnauthorized
	}
	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := as.sessionRepo.GetBySessionTokens(ctx, tx, []string{refreshToken})
		if err != nil {
			return fmt.Errorf("error fetching session: %w", err)
		}
		if len(found) == 0 {
			return ErrUnauthorized
		}
		session := found[0]
		if session.Expires.Before(time.Now()) {
			if dErr := as.sessionRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{session.ID}); dErr != nil {
				return fmt.Errorf("refresh token expired, error deleting: %w", dErr)
			}
			as.log.Warn("Refresh Token Expired, Cannot proceed.")
			return ErrUnauthorized
		}
		var role string
		if profiles, pErr := as.profileRepo.GetByUserIDs(ctx, tx, []uuid.UUID{session.UserID}); pErr == nil && len(profiles) > 0 {
			role = profiles[0].UserRole
		}
		tok, gErr := as.generateAccessToken(session.UserID, session.ID, role)
		if gErr != nil {
			return fmt.Errorf("failed to generate new access token: %w", gErr)
		}
		session.AccessToken = tok
		session.SessionToken = uuid.NewString()
		session.Expires = time.Now().Add(as.refreshTTL)
		if _, uErr := as.sessionRepo.Update(ctx, tx, []*types.Session{session}); uErr != nil {
			return fmt.Errorf("failed to rotate session: %w", uErr)
		}
		accessToken = tok
		newRefreshToken = session.SessionToken
		return nil
	})
	if err != nil {
		as.log.Warn("Failed refresh transaction, Cannot proceed. Returning error.", "error", err)
		return "", "", err
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.SessionID == uuid.Nil {
		as.log.Warn("No Request Data found in context, Cannot proceed.")
		return ErrUnauthorized
	}
	return as.sessionRepo.FullDeleteByIDs(ctx, nil, []uuid.UUID{rd.SessionID})
}

//----------------------------------------------------------------------------------------------------------------------
// Tokens
//----------------------------------------------------------------------------------------------------------------------

func (as *authService) generateAccessToken(userID, sessionID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role:      role,
		SessionID: sessionID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the JWT and checks that its session still
// exists, then attaches the caller's identity to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrUnauthorized
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired JWT token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user ID in token: %w", err)
	}
	sessions, err := as.sessionRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if err != nil {
		as.log.Warn("Error fetching session by access token, Cannot proceed. Returning error.", "error", err)
		return ctx, fmt.Errorf("failed to fetch session: %w", err)
	}
	if len(sessions) == 0 || sessions[0].UserID != userID {
		return ctx, fmt.Errorf("session revoked")
	}
	rd := &requestdata.RequestData{
		TokenString: tokenString,
		SessionID:   sessions[0].ID,
		UserID:      userID,
		Role:        claims.Role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

// HomeWorkspaceRedirect picks where to send a user after sign-in: the
// requested local path, their home workspace's chat, or setup.
func (as *authService) HomeWorkspaceRedirect(ctx context.Context, userID uuid.UUID, next string) (string, error) {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next, nil
	}
	homes, err := as.workspaceRepo.GetHomeByUserID(ctx, nil, userID)
	if err != nil {
		return "", err
	}
	if len(homes) == 0 {
		return "/setup", nil
	}
	return "/" + homes[0].ID.String() + "/chat", nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func (as *authService) GetRefreshTTL() time.Duration {
	return as.refreshTTL
}

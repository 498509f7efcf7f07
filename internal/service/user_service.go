package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"filedock-go/internal/apperr"
	"filedock-go/internal/model"
	"filedock-go/internal/repository"
	"filedock-go/pkg/token"
)

// AuthTokens 是一次登录或刷新的结果。
type AuthTokens struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

// UserService 接口定义了用户注册、登录与会话管理。
type UserService interface {
	Register(name, email, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, sessionID string) error
	GetProfile(userID uuid.UUID) (*model.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtManager  *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtManager:  jwtManager,
	}
}

// Register 注册新用户，用户名与邮箱均全局唯一。
func (s *userService) Register(name, email, username, password string) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("密码加密失败", err)
	}

	hash := string(hashed)
	user := &model.User{
		ID:       model.NewID(),
		Name:     name,
		Email:    email,
		Username: username,
		Password: &hash,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("用户名或邮箱已存在")
		}
		return nil, apperr.Internal("创建用户失败", err)
	}
	return user, nil
}

// Login 校验用户名密码，创建新会话并签发 access/refresh token。
// 用户不存在与密码错误对外是同一个错误。
func (s *userService) Login(ctx context.Context, username, password string) (*AuthTokens, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("用户名或密码错误")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}
	if user.Password == nil {
		return nil, apperr.Forbidden("用户名或密码错误")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(password)); err != nil {
		return nil, apperr.Forbidden("用户名或密码错误")
	}

	sessionID := token.GenerateRandomString(16)
	if err := s.sessionRepo.Create(ctx, sessionID, user.ID, s.jwtManager.RefreshTokenDuration()); err != nil {
		return nil, apperr.Internal("创建会话失败", err)
	}
	return s.issueTokens(user, sessionID)
}

// Refresh 用有效的 refresh token 换取新的 access token。
// 会话必须仍然存在：注销过的会话不能再刷新。
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, apperr.Forbidden("登录已失效")
	}
	ok, err := s.sessionRepo.Exists(ctx, claims.SessionID)
	if err != nil {
		return nil, apperr.Internal("查询会话失败", err)
	}
	if !ok {
		return nil, apperr.Forbidden("登录已失效")
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("登录已失效")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}
	return s.issueTokens(user, claims.SessionID)
}

// Logout 删除会话，绑定该会话的 access/refresh token 随之失效。
func (s *userService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return apperr.Internal("删除会话失败", err)
	}
	return nil
}

// GetProfile 返回用户资料。
func (s *userService) GetProfile(userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("用户不存在")
		}
		return nil, apperr.Internal("查询用户失败", err)
	}
	return user, nil
}

func (s *userService) issueTokens(user *model.User, sessionID string) (*AuthTokens, error) {
	access, err := s.jwtManager.GenerateToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, apperr.Internal("生成 token 失败", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, sessionID)
	if err != nil {
		return nil, apperr.Internal("生成 token 失败", err)
	}
	return &AuthTokens{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

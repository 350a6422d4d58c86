package services

import (
	"context"
	"fmt"
	"strings"

	"it-inventory/internal/dto"
	"it-inventory/internal/entities"
	"it-inventory/internal/repositories"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"
	"it-inventory/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserServiceInterface interface {
	Create(ctx context.Context, actor entities.Actor, createDTO dto.CreateUserDTO) (*dto.UserDTO, error)
	Update(ctx context.Context, actor entities.Actor, id uint64, updateDTO dto.UpdateUserDTO) (*dto.UserDTO, error)
	ChangeStatus(ctx context.Context, actor entities.Actor, id uint64, status entities.UserStatus) (*dto.UserDTO, error)
	Delete(ctx context.Context, actor entities.Actor, id uint64) error
	ChangePassword(ctx context.Context, actor entities.Actor, payload dto.ChangePasswordDTO) error
	GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error)
	List(ctx context.Context, filter types.Filter) (*types.PagedResult[dto.UserDTO], error)
}

type UserService struct {
	txManager repositories.TxManagerInterface
	userRepo  repositories.UserRepositoryInterface
	audit     AuditServiceInterface
	logger    *zap.Logger
}

func NewUserService(
	txManager repositories.TxManagerInterface,
	userRepo repositories.UserRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		txManager: txManager,
		userRepo:  userRepo,
		audit:     audit,
		logger:    logger,
	}
}

func (s *UserService) Create(ctx context.Context, actor entities.Actor, createDTO dto.CreateUserDTO) (*dto.UserDTO, error) {
	username := strings.TrimSpace(createDTO.Username)
	if strings.EqualFold(username, createDTO.Password) {
		return nil, apperrors.NewInvalidInputError("пароль не должен совпадать с именем пользователя")
	}
	role := entities.UserRole(createDTO.Role)
	if !role.Valid() {
		return nil, apperrors.NewInvalidInputError("неизвестная роль: %s", createDTO.Role)
	}

	hash, err := utils.HashPassword(createDTO.Password)
	if err != nil {
		return nil, err
	}
	user := &entities.User{Username: username, Password: hash, Role: role, Status: entities.UserActive}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		taken, err := s.userRepo.UsernameTakenInTx(ctx, tx, username, 0)
		if err != nil {
			return err
		}
		if taken {
			return &apperrors.DuplicateError{Field: "username", Value: username}
		}
		if err := s.userRepo.CreateInTx(ctx, tx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, entities.ActionCreate, entities.EntityUser, user.ID,
			fmt.Sprintf("Пользователь %s был добавлен в систему с ролью %s", user.Username, user.Role))
	})
	if err != nil {
		s.logger.Warn("пользователь не создан", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	res := dto.NewUserDTO(user)
	return &res, nil
}

func (s *UserService) Update(ctx context.Context, actor entities.Actor, id uint64, updateDTO dto.UpdateUserDTO) (*dto.UserDTO, error) {
	var result *entities.User

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if user.Status != entities.UserActive {
			return apperrors.NewInvalidInputError("обновление запрещено: пользователь отключён")
		}

		var changes []string
		if updateDTO.Username != nil {
			username := strings.TrimSpace(*updateDTO.Username)
			if username != user.Username {
				taken, err := s.userRepo.UsernameTakenInTx(ctx, tx, username, id)
				if err != nil {
					return err
				}
				if taken {
					return &apperrors.DuplicateError{Field: "username", Value: username}
				}
				changes = append(changes, fmt.Sprintf("Имя: %q → %q", user.Username, username))
				user.Username = username
			}
		}
		if updateDTO.Role != nil && entities.UserRole(*updateDTO.Role) != user.Role {
			role := entities.UserRole(*updateDTO.Role)
			if !role.Valid() {
				return apperrors.NewInvalidInputError("неизвестная роль: %s", *updateDTO.Role)
			}
			changes = append(changes, fmt.Sprintf("Роль: %q → %q", user.Role, role))
			user.Role = role
		}
		if updateDTO.Password != nil {
			if utils.PasswordMatches(user.Password, *updateDTO.Password) {
				changes = append(changes, "Пароль введён тот же, не изменён")
			} else {
				if strings.EqualFold(user.Username, *updateDTO.Password) {
					return apperrors.NewInvalidInputError("пароль не должен совпадать с именем пользователя")
				}
				hash, err := utils.HashPassword(*updateDTO.Password)
				if err != nil {
					return err
				}
				user.Password = hash
				changes = append(changes, "Пароль был изменён")
			}
		}

		result = user
		if len(changes) == 0 {
			return nil
		}
		if err := s.userRepo.UpdateInTx(ctx, tx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, entities.ActionUpdate, entities.EntityUser, id, strings.Join(changes, " | "))
	})
	if err != nil {
		s.logger.Warn("пользователь не обновлён", zap.Uint64("userID", id), zap.Error(err))
		return nil, err
	}

	res := dto.NewUserDTO(result)
	return &res, nil
}

func (s *UserService) ChangeStatus(ctx context.Context, actor entities.Actor, id uint64, status entities.UserStatus) (*dto.UserDTO, error) {
	if !status.Valid() {
		return nil, apperrors.NewInvalidInputError("неизвестный статус: %s", status)
	}
	if actor.ID == id && status == entities.UserDisabled {
		return nil, apperrors.NewInvalidInputError("нельзя отключить собственную учётную запись")
	}
	user, err := s.setStatus(ctx, actor, id, status, entities.ActionUpdate, fmt.Sprintf("Статус изменён на %s", status))
	if err != nil {
		return nil, err
	}
	res := dto.NewUserDTO(user)
	return &res, nil
}

// Delete отключает пользователя. Записи журнала ссылаются на него, поэтому строку не удаляем.
func (s *UserService) Delete(ctx context.Context, actor entities.Actor, id uint64) error {
	if actor.ID == id {
		return apperrors.NewInvalidInputError("нельзя удалить собственную учётную запись")
	}
	_, err := s.setStatus(ctx, actor, id, entities.UserDisabled, entities.ActionDelete, fmt.Sprintf("Пользователь удалён: %d", id))
	return err
}

func (s *UserService) setStatus(ctx context.Context, actor entities.Actor, id uint64, status entities.UserStatus,
	action entities.HistoryAction, description string,
) (*entities.User, error) {
	var result *entities.User
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		result = user
		// Повторное отключение или удаление не пишет журнал.
		if user.Status == status {
			return nil
		}
		user.Status = status
		if err := s.userRepo.UpdateInTx(ctx, tx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, action, entities.EntityUser, id, description)
	})
	if err != nil {
		s.logger.Warn("статус пользователя не изменён", zap.Uint64("userID", id), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *UserService) ChangePassword(ctx context.Context, actor entities.Actor, payload dto.ChangePasswordDTO) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepo.FindByIDForUpdate(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if !utils.PasswordMatches(user.Password, payload.OldPassword) {
			return apperrors.NewInvalidInputError("неверный старый пароль")
		}
		if strings.EqualFold(user.Username, payload.NewPassword) {
			return apperrors.NewInvalidInputError("пароль не должен совпадать с именем пользователя")
		}
		hash, err := utils.HashPassword(payload.NewPassword)
		if err != nil {
			return err
		}
		user.Password = hash
		if err := s.userRepo.UpdateInTx(ctx, tx, user); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, entities.ActionUpdate, entities.EntityUser, user.ID, "Пароль был изменён")
	})
}

func (s *UserService) GetByID(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := dto.NewUserDTO(user)
	return &res, nil
}

func (s *UserService) List(ctx context.Context, filter types.Filter) (*types.PagedResult[dto.UserDTO], error) {
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserDTO(&users[i]))
	}
	return &types.PagedResult[dto.UserDTO]{Items: items, Pagination: types.NewPagination(total, filter)}, nil
}

package services

import (
	"context"
	"fmt"
	"net/http"

	ldap "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/pkg/config"
	apperrors "leave-system/pkg/errors"
)

type ADServiceInterface interface {
	SearchUsers(ctx context.Context, searchQuery string) ([]dto.ADUserDTO, error)
}

type ADService struct {
	ldapCfg config.LDAPConfig
	logger  *zap.Logger
}

func NewADService(ldapCfg config.LDAPConfig, logger *zap.Logger) *ADService {
	return &ADService{ldapCfg: ldapCfg, logger: logger}
}

// SearchUsers ищет сотрудников в Active Directory, чтобы заполнить карточку при создании пользователя.
func (s *ADService) SearchUsers(ctx context.Context, searchQuery string) ([]dto.ADUserDTO, error) {
	if !s.ldapCfg.SearchEnabled {
		s.logger.Warn("Попытка поиска в AD, когда функция отключена")
		return nil, apperrors.NewHttpError(http.StatusServiceUnavailable, "Поиск в Active Directory отключён в конфигурации.", nil, nil)
	}
	if len(searchQuery) < 2 {
		return nil, apperrors.NewInvalidInputError("строка поиска должна содержать не менее 2 символов")
	}

	s.logger.Info("[AD_SEARCH] Начало поиска", zap.String("query", searchQuery))

	l, err := ldap.DialURL(fmt.Sprintf("ldap://%s:%d", s.ldapCfg.Host, s.ldapCfg.Port))
	if err != nil {
		s.logger.Error("[AD_SEARCH] Не удалось подключиться к LDAP-серверу", zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	defer l.Close()

	// Соединение закрывается при отмене запроса, чтобы не держать поиск дольше клиента.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-done:
		}
	}()

	if err = l.Bind(s.ldapCfg.BindDN, s.ldapCfg.BindPassword); err != nil {
		s.logger.Error("[AD_SEARCH] Не удалось выполнить Bind под сервисной учётной записью",
			zap.Error(err), zap.String("bind_dn", s.ldapCfg.BindDN))
		return nil, apperrors.ErrInternalServer
	}

	// Шаблон фильтра содержит два %s: по почте и по отображаемому имени.
	escapedQuery := ldap.EscapeFilter(searchQuery)
	filter := fmt.Sprintf(s.ldapCfg.SearchFilterPattern, escapedQuery, escapedQuery)
	s.logger.Debug("[AD_SEARCH] Сформирован LDAP фильтр", zap.String("filter", filter))

	searchRequest := ldap.NewSearchRequest(
		s.ldapCfg.SearchBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 50, 0, false,
		filter,
		s.ldapCfg.SearchAttributes,
		nil,
	)

	sr, err := l.Search(searchRequest)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Error("[AD_SEARCH] Ошибка при выполнении поиска в AD", zap.Error(err), zap.String("filter", filter))
		return nil, apperrors.ErrInternalServer
	}

	s.logger.Info("[AD_SEARCH] Поиск завершён", zap.Int("found_users", len(sr.Entries)))

	users := make([]dto.ADUserDTO, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		users = append(users, s.toADUser(entry))
	}
	return users, nil
}

func (s *ADService) toADUser(entry *ldap.Entry) dto.ADUserDTO {
	return dto.ADUserDTO{
		Email:     entry.GetAttributeValue(s.ldapCfg.EmailAttribute),
		FirstName: entry.GetAttributeValue(s.ldapCfg.FirstNameAttribute),
		LastName:  entry.GetAttributeValue(s.ldapCfg.LastNameAttribute),
		Phone:     entry.GetAttributeValue(s.ldapCfg.PhoneAttribute),
	}
}

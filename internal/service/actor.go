package service

import (
	"context"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
)

// loadActor находит инициатора запроса; неизвестный инициатор - ошибка авторизации
func loadActor(ctx context.Context, repos *repository.Repositories, actorID uint) (*models.Person, error) {
	if actorID == 0 {
		return nil, authorizationError("не указан инициатор запроса")
	}
	actor, err := repos.Persons.GetByID(ctx, actorID)
	if err != nil {
		return nil, internalError("failed to load actor", err)
	}
	if actor == nil {
		return nil, authorizationError("инициатор запроса не найден")
	}
	return actor, nil
}

func requireRole(actor *models.Person, roles ...models.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return authorizationError("недостаточно прав для операции")
}

func requireSameOrganization(actor *models.Person, organizationID uint) error {
	if actor.OrganizationID != organizationID {
		return authorizationError("объект принадлежит другой организации")
	}
	return nil
}

// canView - стажер видит только себя, руководитель и администратор - всю организацию
func canView(actor *models.Person, person *models.Person) error {
	if err := requireSameOrganization(actor, person.OrganizationID); err != nil {
		return err
	}
	if actor.Role == models.RoleIntern && actor.ID != person.ID {
		return authorizationError("стажер может смотреть только свои данные")
	}
	return nil
}

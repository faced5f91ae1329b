package service

import (
	"context"
	"rotation-workflow/internal/models"
	"rotation-workflow/internal/repository"
	"rotation-workflow/pkg/weekends"

	"github.com/sirupsen/logrus"
)

type NonWorkingDayService struct {
	repo   repository.NonWorkingDayRepository
	logger *logrus.Logger
}

func NewNonWorkingDayService(repo repository.NonWorkingDayRepository) *NonWorkingDayService {
	return &NonWorkingDayService{repo: repo, logger: newLogger()}
}

// LoadFromJSON загружает нерабочие дни из файла календаря в базу данных.
// Сохраняются только будни: выходные и так не входят в норму часов
func (s *NonWorkingDayService) LoadFromJSON(ctx context.Context, filePath string) (int, error) {
	// Парсим JSON
	calendarDays, err := weekends.ParseFile(filePath)
	if err != nil {
		return 0, err
	}

	// Преобразуем в модели
	var nonWorkingDays []models.NonWorkingDay
	for _, wd := range weekends.Weekdays(calendarDays) {
		nonWorkingDays = append(nonWorkingDays, models.NonWorkingDay{
			Date:  wd.Date,
			Year:  wd.Year,
			Month: wd.Month,
			Day:   wd.Day,
		})
	}

	// Удаляем старые записи (чтобы избежать дублирования)
	if err := s.repo.DeleteAll(ctx); err != nil {
		s.logger.Warnf("Failed to delete old non-working days: %v", err)
	}

	// Сохраняем в базу
	if err := s.repo.BulkCreate(ctx, nonWorkingDays); err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"file":  filePath,
		"total": len(calendarDays),
		"saved": len(nonWorkingDays),
	}).Info("Non-working days loaded")

	return len(nonWorkingDays), nil
}

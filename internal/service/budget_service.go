package service

import (
	"context"
	"fmt"
	"time"

	"rag-presupuestos-be/internal/dto"
	"rag-presupuestos-be/internal/pkg/logger"
	"rag-presupuestos-be/pkg/budget/bc3"
	"rag-presupuestos-be/pkg/budget/enrich"
	"rag-presupuestos-be/pkg/budget/excel"
	"rag-presupuestos-be/pkg/events"
	"rag-presupuestos-be/pkg/nats"
)

const defaultProjectName = "Presupuesto generado"

// BudgetFile is a rendered export ready to stream to the caller.
type BudgetFile struct {
	Filename    string
	ContentType string
	Content     []byte
	Lines       []dto.BudgetLineDTO
}

type IBudgetService interface {
	Generate(ctx context.Context, req *dto.GenerateBudgetRequest) (*BudgetFile, error)
}

type budgetService struct {
	pipeline       *enrich.Pipeline
	eventPublisher *nats.Publisher
	logger         logger.ILogger

	// now is injectable so the BC3 header date is testable.
	now func() time.Time
}

func NewBudgetService(pipeline *enrich.Pipeline, eventPublisher *nats.Publisher, log logger.ILogger) IBudgetService {
	return &budgetService{
		pipeline:       pipeline,
		eventPublisher: eventPublisher,
		logger:         log,
		now:            time.Now,
	}
}

func (s *budgetService) Generate(ctx context.Context, req *dto.GenerateBudgetRequest) (*BudgetFile, error) {
	projectName := req.ProjectName
	if projectName == "" {
		projectName = defaultProjectName
	}
	format := req.Format
	if format == "" {
		format = dto.BudgetFormatBC3
	}

	lines := s.pipeline.Enrich(ctx, req.Items)

	estimated := 0
	failed := 0
	for _, line := range lines {
		if line.Estimated {
			estimated++
		}
		if line.Err != nil {
			failed++
		}
	}

	file := &BudgetFile{Lines: linesToDTO(lines)}
	switch format {
	case dto.BudgetFormatBC3:
		content := bc3.Build(successfulItems(lines), projectName, s.now())
		file.Filename = "presupuesto.bc3"
		file.ContentType = "application/octet-stream"
		file.Content = []byte(content)
	case dto.BudgetFormatXLSX:
		buf, err := excel.Write(lines, projectName)
		if err != nil {
			return nil, fmt.Errorf("generate budget: %w", err)
		}
		file.Filename = "presupuesto.xlsx"
		file.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		file.Content = buf.Bytes()
	default:
		return nil, fmt.Errorf("generate budget: unknown format %q", format)
	}

	s.logger.Info("budget", "budget generated", map[string]interface{}{
		"project":   projectName,
		"format":    format,
		"lines":     len(lines),
		"estimated": estimated,
		"failed":    failed,
	})

	if s.eventPublisher != nil {
		evt := events.NewBudgetGenerated(projectName, format, len(lines), estimated)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("budget", "failed to publish budget generated event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return file, nil
}

// successfulItems keeps the lines the BC3 writer can represent. Failed lines
// are reported through the response metadata instead.
func successfulItems(lines []enrich.Line) []bc3.Item {
	items := make([]bc3.Item, 0, len(lines))
	for _, line := range lines {
		if line.Err != nil {
			continue
		}
		items = append(items, line.Item)
	}
	return items
}

func linesToDTO(lines []enrich.Line) []dto.BudgetLineDTO {
	out := make([]dto.BudgetLineDTO, 0, len(lines))
	for _, line := range lines {
		d := dto.BudgetLineDTO{
			Query:     line.Query,
			Code:      line.Item.Code,
			Summary:   line.Item.Summary,
			Unit:      line.Item.Unit,
			Price:     line.Item.Price,
			Estimated: line.Estimated,
		}
		if line.Err != nil {
			d.Error = line.Err.Error()
		}
		out = append(out, d)
	}
	return out
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/suchimauz/clinic-admin/internal/core/domain"
	"github.com/suchimauz/clinic-admin/internal/core/ports/in"
	"github.com/suchimauz/clinic-admin/internal/core/ports/out"
)

const question = "Are you sure? [y/N] "

type DeletePromptRunner struct {
	useCase in.DoctorDeletionService
	input   *bufio.Reader
	output  io.Writer
	logger  out.LoggerPort
}

func NewDeletePromptRunner(useCase in.DoctorDeletionService, input io.Reader, output io.Writer, logger out.LoggerPort) *DeletePromptRunner {
	return &DeletePromptRunner{
		useCase: useCase,
		input:   bufio.NewReader(input),
		output:  output,
		logger:  logger,
	}
}

// Run спрашивает подтверждение и удаляет запись. После ошибки вопрос задается снова,
// с assumeYes попытка одна. Возвращает false, если оператор отказался.
func (r *DeletePromptRunner) Run(ctx context.Context, resource domain.ResourceType, id int, assumeYes bool) (domain.DeletionReport, bool, error) {
	prompt := domain.NewDeletePrompt(
		func(ctx context.Context) (domain.DeletionReport, error) {
			return r.useCase.DeleteResource(context.WithoutCancel(ctx), resource, id)
		},
		func(report domain.DeletionReport) {
			r.printDeleted(report)
		},
	)

	prompt.Click()
	fmt.Fprintf(r.output, "Delete %s?\n", domain.ResourceKey(resource, id))

	for {
		if !assumeYes && !r.ask() {
			prompt.Cancel()
			fmt.Fprintln(r.output, "Cancelled")
			return domain.DeletionReport{}, false, nil
		}

		report, err := prompt.Confirm(ctx)
		if err == nil {
			return report, true, nil
		}

		r.printFailed(report, err)
		r.logger.Warn("cli.deletion.failed", out.LogFields{
			"key":   domain.ResourceKey(resource, id),
			"error": err.Error(),
		})

		if assumeYes || ctx.Err() != nil {
			return report, true, err
		}
	}
}

func (r *DeletePromptRunner) ask() bool {
	fmt.Fprint(r.output, question)

	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *DeletePromptRunner) printDeleted(report domain.DeletionReport) {
	if report.Resource == domain.ResourceDoctors {
		fmt.Fprintf(r.output, "Deleted %s with %d appointment(s) and %d prescription(s)\n",
			report.Key(), report.Counts.Appointments, report.Counts.Prescriptions)
		return
	}
	fmt.Fprintf(r.output, "Deleted %s\n", report.Key())
}

func (r *DeletePromptRunner) printFailed(report domain.DeletionReport, err error) {
	fmt.Fprintf(r.output, "Error: %s\n", err)
	for _, failed := range report.Failed {
		if failed.Status != 0 {
			fmt.Fprintf(r.output, "  %s: %d %s\n", domain.ResourceKey(failed.Resource, failed.ID), failed.Status, failed.Error)
			continue
		}
		fmt.Fprintf(r.output, "  %s: %s\n", domain.ResourceKey(failed.Resource, failed.ID), failed.Error)
	}
	for _, skipped := range report.Skipped {
		fmt.Fprintf(r.output, "  %s: not attempted\n", domain.ResourceKey(skipped.Resource, skipped.ID))
	}
}

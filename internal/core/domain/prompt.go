package domain

import (
	"context"
	"sync"
)

type PromptState string

const (
	PromptStateIdle       PromptState = "idle"
	PromptStateConfirming PromptState = "confirming"
	PromptStateDeleting   PromptState = "deleting"
)

type DeleteFunc func(ctx context.Context) (DeletionReport, error)

// DeletePrompt - подтверждение удаления: корзина -> "Are you sure?" -> Yes/No.
// Пока идет удаление, повторное подтверждение отклоняется.
type DeletePrompt struct {
	mu        sync.Mutex
	state     PromptState
	deleteFn  DeleteFunc
	onDeleted func(DeletionReport)
}

func NewDeletePrompt(deleteFn DeleteFunc, onDeleted func(DeletionReport)) *DeletePrompt {
	return &DeletePrompt{
		state:     PromptStateIdle,
		deleteFn:  deleteFn,
		onDeleted: onDeleted,
	}
}

func (p *DeletePrompt) State() PromptState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *DeletePrompt) Click() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PromptStateIdle {
		p.state = PromptStateConfirming
	}
}

func (p *DeletePrompt) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PromptStateConfirming {
		p.state = PromptStateIdle
	}
}

func (p *DeletePrompt) Confirm(ctx context.Context) (DeletionReport, error) {
	p.mu.Lock()
	switch p.state {
	case PromptStateDeleting:
		p.mu.Unlock()
		return DeletionReport{}, ErrDeletionInProgress
	case PromptStateIdle:
		p.mu.Unlock()
		return DeletionReport{}, ErrNotConfirming
	}
	p.state = PromptStateDeleting
	p.mu.Unlock()

	report, err := p.deleteFn(ctx)

	p.mu.Lock()
	if err != nil {
		// Остаемся на вопросе, оператор может повторить
		p.state = PromptStateConfirming
	} else {
		p.state = PromptStateIdle
	}
	p.mu.Unlock()

	if err == nil && p.onDeleted != nil {
		p.onDeleted(report)
	}
	return report, err
}

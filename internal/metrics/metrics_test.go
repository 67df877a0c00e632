package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/AlexZinkM/evm-local-wallet/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
	assert.Equal(t, "InvalidPassword", Result(model.ErrInvalidPassword))
	assert.Equal(t, "NodeUnavailable", Result(fmt.Errorf("failed to read: %w",
		model.NewError(model.KindNodeUnavailable, "down"))))
}

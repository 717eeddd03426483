package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusOK, Status(nil))
	assert.Equal(t, StatusError, Status(errors.New("boom")))
}

func TestObserveMutation(t *testing.T) {
	before := testutil.ToFloat64(Mutations.WithLabelValues("add", StatusError))

	ObserveMutation("add", time.Now(), errors.New("boom"))

	after := testutil.ToFloat64(Mutations.WithLabelValues("add", StatusError))
	assert.Equal(t, before+1, after)
}

func TestObserveTransfer(t *testing.T) {
	before := testutil.ToFloat64(Transfers.WithLabelValues("export", "json", StatusOK))

	ObserveTransfer("export", "json", 512, nil)

	after := testutil.ToFloat64(Transfers.WithLabelValues("export", "json", StatusOK))
	assert.Equal(t, before+1, after)
}

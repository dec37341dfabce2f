package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUpstream(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("trongrid", "getaccount", "error"))
	ObserveUpstream("trongrid", "getaccount", time.Now(), errors.New("boom"))
	after := testutil.ToFloat64(UpstreamRequestsTotal.WithLabelValues("trongrid", "getaccount", "error"))
	assert.Equal(t, before+1, after)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}

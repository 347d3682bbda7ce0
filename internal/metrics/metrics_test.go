package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/olegiv/pmt-go/internal/policy"
)

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultDenied, Result(&policy.DeniedError{Capability: policy.TasksDelete}))
	assert.Equal(t, ResultError, Result(errors.New("boom")))
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("test_op", ResultDenied))
	deniedBefore := testutil.ToFloat64(denials.WithLabelValues(string(policy.UsersManage)))

	ObserveOperation("test_op", time.Now(), &policy.DeniedError{Capability: policy.UsersManage})

	assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("test_op", ResultDenied)))
	assert.Equal(t, deniedBefore+1, testutil.ToFloat64(denials.WithLabelValues(string(policy.UsersManage))))
}

func TestObserveCache(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues(CacheHit))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues(CacheMiss))

	ObserveCache(true)
	ObserveCache(false)
	ObserveCache(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues(CacheMiss)))
}

func TestObserveHTTP_Unmatched(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))
	ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

package taskpool_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/taskpool"
)

type TaskPoolTestSuite struct {
	suite.Suite
}

func TestTaskPoolTestSuite(t *testing.T) {
	suite.Run(t, new(TaskPoolTestSuite))
}

// A submitted unit is retrieved with the exact value it produced, and only
// once - the identity scenario.
func (ts *TaskPoolTestSuite) TestIdentity() {
	p := taskpool.Hot[string](4)
	defer p.Close()

	id := p.Submit(func() string { return "hello" })

	v, err := p.Wait(id)
	ts.Nil(err)
	ts.Equal("hello", v)

	_, err = p.TryGet(id)
	ts.NotNil(err)
	ts.Equal(taskpool.NotInserted, err.Kind)
}

// A panicking callable never takes down its engine, and surfaces as a
// Panicked result rather than a crash.
func (ts *TaskPoolTestSuite) TestPanicIsolation() {
	p := taskpool.Hot[int](2)
	defer p.Close()

	badID := p.Submit(func() int { panic("deliberate") })
	goodID := p.Submit(func() int { return 5 })

	_, err := p.Wait(badID)
	ts.NotNil(err)
	ts.Equal(taskpool.Panicked, err.Kind)

	v, err := p.Wait(goodID)
	ts.Nil(err)
	ts.Equal(5, v)
}

// 10,000 units across 8 engines all complete with their expected values.
func (ts *TaskPoolTestSuite) TestParallelThroughput() {
	p := taskpool.Hot[int](8)
	defer p.Close()

	const n = 10_000
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		i := i
		ids[i] = p.Submit(func() int { return i * 2 })
	}

	for i, id := range ids {
		v, err := p.Wait(id)
		ts.Nil(err)
		ts.Equal(i*2, v)
	}
}

// Units submitted before Power accumulate in the registry, run nowhere, and
// complete only once the pool is powered.
func (ts *TaskPoolTestSuite) TestColdThenPower() {
	p := taskpool.Cold[int](4)
	defer p.Close()

	const n = 50
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		i := i
		ids[i] = p.Submit(func() int { return i })
	}

	time.Sleep(20 * time.Millisecond)
	_, err := p.TryGet(ids[0])
	ts.NotNil(err)
	ts.Equal(taskpool.NotCompleted, err.Kind)

	ts.Nil(p.Power())

	second := p.Power()
	ts.NotNil(second)
	ts.Equal(taskpool.AlreadyPowered, second.Kind)

	for i, id := range ids {
		v, err := p.Wait(id)
		ts.Nil(err)
		ts.Equal(i, v)
	}
}

// Under a million-unit load across four engines, every engine runs at
// least one unit - the steal path actually fires, not just engine zero.
func (ts *TaskPoolTestSuite) TestStealingUnderLoad() {
	if testing.Short() {
		ts.T().Skip("skipping million-unit steal scenario in short mode")
	}

	p := taskpool.Hot[int](4)
	defer p.Close()

	const n = 1_000_000
	for i := 0; i < n; i++ {
		p.Submit(func() int { return 1 })
	}
	p.Drain()

	counts := p.EngineRunCounts()
	ts.Len(counts, 4)

	var total int64
	for i, c := range counts {
		ts.Greaterf(c, int64(0), "engine %d ran zero units", i)
		total += c
	}
	ts.Equal(int64(n), total)
}

// Closing the pool while a unit is still outstanding wakes any blocked
// waiter with PoolClosed rather than hanging forever.
func (ts *TaskPoolTestSuite) TestTeardownSafety() {
	p := taskpool.Hot[int](1)

	release := make(chan struct{})
	_ = p.Submit(func() int {
		<-release
		return 1
	})
	pending := p.Submit(func() int {
		<-release
		return 2
	})

	waitDone := make(chan *taskpool.UnitError, 1)
	go func() {
		_, err := p.Wait(pending)
		waitDone <- err
	}()

	time.Sleep(10 * time.Millisecond)
	go p.Close()
	// Let Close set the engine's termination flag before the blocked unit
	// returns, so the engine stops instead of running pending.
	time.Sleep(10 * time.Millisecond)
	close(release)

	select {
	case err := <-waitDone:
		ts.NotNil(err)
		ts.Equal(taskpool.PoolClosed, err.Kind)
	case <-time.After(2 * time.Second):
		ts.FailNow("Wait did not return PoolClosed after Close")
	}
}

// SubmitBatch reserves one id per work item, not one shared id for the
// whole batch.
func (ts *TaskPoolTestSuite) TestSubmitBatchPerUnitIDs() {
	p := taskpool.Hot[string](3)
	defer p.Close()

	works := make([]func() string, 5)
	for i := range works {
		i := i
		works[i] = func() string { return fmt.Sprintf("item-%d", i) }
	}

	first := p.SubmitBatch(works)
	for i := 0; i < len(works); i++ {
		v, err := p.Wait(first + uint64(i))
		ts.Nil(err)
		ts.Equal(fmt.Sprintf("item-%d", i), v)
	}
}

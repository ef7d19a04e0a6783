package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueEnqueueAndConsume(t *testing.T) {
	queue := NewJobQueue(2, testLogger())

	job := newFakeJob(OutcomeCompleted, nil)
	require.NoError(t, queue.Enqueue(job))

	got := <-queue.GetChannel()
	assert.Equal(t, job.ID(), got.ID())
}

func TestJobQueueFull(t *testing.T) {
	queue := NewJobQueue(1, testLogger())

	require.NoError(t, queue.Enqueue(newFakeJob(OutcomeCompleted, nil)))

	err := queue.Enqueue(newFakeJob(OutcomeCompleted, nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestJobQueueClosed(t *testing.T) {
	queue := NewJobQueue(1, testLogger())
	queue.Close()

	err := queue.Enqueue(newFakeJob(OutcomeCompleted, nil))
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Close is idempotent.
	queue.Close()
}

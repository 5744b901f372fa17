package tasks

// TaskSchedulerInterface is the surface the rest of the application
// uses to drive background processing: start/stop the worker pool and
// enqueue ad-hoc tasks.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

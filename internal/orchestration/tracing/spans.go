package tracing

// Span attribute keys for queue-engine tracing.
// These constants define the semantic conventions for span attributes
// across the dispatch, estimation, and config-persistence paths.
const (
	// Queue attributes
	AttrQueueItemID   = "queue.item.id"
	AttrQueueSize     = "queue.size"
	AttrQueueSiteName = "queue.site.name"

	// Scheduler attributes
	AttrSchedulerDelayMs = "scheduler.delay_ms"
	AttrSchedulerRatio   = "scheduler.ratio"
	AttrSchedulerSkipped = "scheduler.skipped"
	AttrSchedulerPaused  = "scheduler.paused"

	// Estimator attributes
	AttrEstimatorModel    = "estimator.model"
	AttrEstimatorScale    = "estimator.scale"
	AttrEstimatorTokens   = "estimator.tokens"
	AttrEstimatorCacheHit = "estimator.cache_hit"

	// ConfigStore attributes
	AttrConfigProfileID = "configstore.profile_id"
	AttrConfigKey       = "configstore.key"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span names used across the queue engine.
const (
	SpanQueueDispatch     = "queue.dispatch"
	SpanQueueEnqueue      = "queue.enqueue"
	SpanQueuePause        = "queue.pause"
	SpanQueueResume       = "queue.resume"
	SpanSchedulerSample   = "scheduler.sample_delay"
	SpanEstimatorEstimate = "estimator.estimate"
	SpanConfigStoreSave   = "configstore.save"
	SpanConfigStoreLoad   = "configstore.load"
)

// Event names for span events.
const (
	EventQueueItemEnqueued   = "queue.item_enqueued"
	EventQueueItemSkipped    = "queue.item_skipped"
	EventQueueItemDispatched = "queue.item_dispatched"
	EventQueuePaused         = "queue.paused"
	EventQueueResumed        = "queue.resumed"
	EventEstimatorCacheHit   = "estimator.cache_hit"
	EventEstimatorModelUsed  = "estimator.model_used"
	EventConfigSaved         = "configstore.saved"
	EventErrorOccurred       = "error.occurred"
)

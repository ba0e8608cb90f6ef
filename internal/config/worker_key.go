package config

type WorkerKeyStruct struct {
	ProctoringLogQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ProctoringLogQueue: "portal:proctoring_log_queue",
}

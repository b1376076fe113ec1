package config

type WorkerKeyStruct struct {
	MirrorSlotsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	MirrorSlotsQueue: "mirror_slots_queue",
}

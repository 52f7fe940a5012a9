//go:build !whisper

package doctor

func checkPortAudio() Result {
	return Result{Name: "capture", Pass: true, Detail: "built without -tags whisper; record and transcribe are disabled"}
}

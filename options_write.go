package audiometa

// SaveOption configures file.Save/SaveAs (one of the three writable
// formats: MP3/ID3v2, FLAC, Ogg Vorbis — see internal/mp3writer,
// internal/flacwriter, internal/oggwriter).
//
//	err := file.Save(
//	    audiometa.WithBackup(".bak"),
//	    audiometa.WithValidation(),
//	)
type SaveOption func(*saveOptions)

type saveOptions struct {
	backupSuffix    string
	validate        bool
	preserveModTime bool
}

func defaultSaveOptions() *saveOptions {
	return &saveOptions{}
}

// WithBackup copies the original file to <path><suffix> before saving,
// overwriting any backup already at that path.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) { o.backupSuffix = suffix }
}

// WithValidation re-opens and re-parses the file after saving, to catch a
// writer bug that produced unreadable output before it reaches the caller.
func WithValidation() SaveOption {
	return func(o *saveOptions) { o.validate = true }
}

// WithPreserveModTime restores the original file's modification time after
// saving, instead of leaving it at the write time.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) { o.preserveModTime = true }
}

package audiometa

// Importing a format package for its init() side effect is the only way
// its parser (and, where implemented, its writer) reaches the registry:
// internal/registry is keyed by format and populated entirely through
// init(), never through exported constructors callers could call
// themselves. Since internal/* packages cannot be imported outside this
// module, the registration has to happen here, once, for every caller.
import (
	_ "github.com/wrnbx/audiometa/internal/flac"
	_ "github.com/wrnbx/audiometa/internal/flacwriter"
	_ "github.com/wrnbx/audiometa/internal/m4a"
	_ "github.com/wrnbx/audiometa/internal/mp3"
	_ "github.com/wrnbx/audiometa/internal/mp3writer"
	_ "github.com/wrnbx/audiometa/internal/ogg"
	_ "github.com/wrnbx/audiometa/internal/oggwriter"
)

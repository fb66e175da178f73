package audiometa

import (
	"github.com/wrnbx/audiometa/internal/types"
)

// Tags is an alias to types.Tags for backwards compatibility.
// Re-exporting from internal/types to maintain public API.
type Tags = types.Tags

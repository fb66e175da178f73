package audiometa

import (
	"github.com/wrnbx/audiometa/internal/types"
)

// Artwork is an alias to types.Artwork for backwards compatibility.
// Re-exporting from internal/types to maintain public API.
type Artwork = types.Artwork

// ArtworkType is an alias to types.ArtworkType for backwards compatibility.
// Re-exporting from internal/types to maintain public API.
type ArtworkType = types.ArtworkType

// Re-export all artwork type constants
const (
	ArtworkOther             = types.ArtworkOther
	ArtworkIcon              = types.ArtworkIcon
	ArtworkOtherIcon         = types.ArtworkOtherIcon
	ArtworkFrontCover        = types.ArtworkFrontCover
	ArtworkBackCover         = types.ArtworkBackCover
	ArtworkLeaflet           = types.ArtworkLeaflet
	ArtworkMedia             = types.ArtworkMedia
	ArtworkLeadArtist        = types.ArtworkLeadArtist
	ArtworkArtist            = types.ArtworkArtist
	ArtworkConductor         = types.ArtworkConductor
	ArtworkBand              = types.ArtworkBand
	ArtworkComposer          = types.ArtworkComposer
	ArtworkLyricist          = types.ArtworkLyricist
	ArtworkRecordingLocation = types.ArtworkRecordingLocation
	ArtworkDuringRecording   = types.ArtworkDuringRecording
	ArtworkDuringPerformance = types.ArtworkDuringPerformance
	ArtworkVideoCapture      = types.ArtworkVideoCapture
	ArtworkBrightFish        = types.ArtworkBrightFish
	ArtworkIllustration      = types.ArtworkIllustration
	ArtworkBandLogotype      = types.ArtworkBandLogotype
	ArtworkPublisherLogotype = types.ArtworkPublisherLogotype
)

// TagValue is an alias to types.TagValue: one entry of a TagSet, tagged
// with which of text/binary/picture/pair/bool/int it holds.
type TagValue = types.TagValue

// TagValueKind is an alias to types.TagValueKind.
type TagValueKind = types.TagValueKind

// TagPair is an alias to types.TagPair, the (number, total) shape MP4's
// trkn/disk atoms decode into.
type TagPair = types.TagPair

// TagSet is an alias to types.TagSet: the ordered, duplicate-preserving
// multimap of raw format-specific keys to typed values that backs Tags.Raw.
type TagSet = types.TagSet

// Re-export the TagValue kind constants.
const (
	TagText     = types.TagText
	TagBinary   = types.TagBinary
	TagPicture  = types.TagPicture
	TagPairKind = types.TagPairKind
	TagBool     = types.TagBool
	TagInt      = types.TagInt
)

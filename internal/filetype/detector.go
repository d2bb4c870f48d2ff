package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Kind says how a document reaches the renderer.
type Kind int

const (
	// Unsupported documents are rejected before the run starts.
	Unsupported Kind = iota
	// Renderable documents are opened by the page renderer directly.
	Renderable
	// Convertible documents go through LibreOffice to PDF first.
	Convertible
)

func (k Kind) String() string {
	switch k {
	case Renderable:
		return "renderable"
	case Convertible:
		return "convertible"
	default:
		return "unsupported"
	}
}

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType := mtype.String()
	extension := mtype.Extension()
	ext := strings.ToLower(filepath.Ext(filePath))

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", filePath).Msg("detected file type")

	// ZIP containers: Office formats and comic book archives share the magic
	if mtype.Is("application/zip") {
		if override, ok := zipOverrides[ext]; ok {
			mimeType, extension = override, ext
		}
	}

	// OLE/CFB containers hold the legacy Office formats
	if mtype.Is("application/x-ole-storage") {
		if override, ok := oleOverrides[ext]; ok {
			mimeType, extension = override, ext
		}
	}

	info := &FileTypeInfo{
		MIMEType:  mimeType,
		Extension: extension,
	}
	d.classify(info)
	return info, nil
}

var zipOverrides = map[string]string{
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".odt":  "application/vnd.oasis.opendocument.text",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".odp":  "application/vnd.oasis.opendocument.presentation",
	".cbz":  "application/vnd.comicbook+zip",
}

var oleOverrides = map[string]string{
	".doc": "application/msword",
	".xls": "application/vnd.ms-excel",
	".ppt": "application/vnd.ms-powerpoint",
}

// classify decides whether the renderer can open the document as is
func (d *Detector) classify(info *FileTypeInfo) {
	mimeType := info.MIMEType

	switch {
	case mimeType == "application/pdf":
		info.Kind = Renderable
		info.Description = "PDF document"

	case mimeType == "application/epub+zip",
		mimeType == "application/vnd.ms-xpsdocument",
		mimeType == "application/oxps",
		mimeType == "application/vnd.comicbook+zip",
		mimeType == "application/x-fictionbook+xml":
		info.Kind = Renderable
		info.Description = "Fixed-layout or reflowable document"

	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = Renderable
		info.Description = "Image file"

	case strings.HasPrefix(mimeType, "application/vnd.openxmlformats-officedocument."),
		strings.HasPrefix(mimeType, "application/vnd.oasis.opendocument."),
		mimeType == "application/msword",
		mimeType == "application/vnd.ms-excel",
		mimeType == "application/vnd.ms-powerpoint",
		mimeType == "application/rtf",
		mimeType == "text/rtf":
		info.Kind = Convertible
		info.Description = "Office document"

	default:
		info.Kind = Unsupported
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

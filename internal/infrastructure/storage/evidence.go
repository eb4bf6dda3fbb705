// Package storage keeps payment proof files in object storage.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/domain/shared"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const defaultMaxEvidenceSize = 5 << 20

// allowedEvidenceTypes are the proof formats accepted from payers
var allowedEvidenceTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"application/pdf",
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// preparedEvidence is an upload after sniffing and normalisation
type preparedEvidence struct {
	Data        []byte
	ContentType string
	Extension   string
}

// evidencePolicy bounds what an upload may be
type evidencePolicy struct {
	maxSize       int64
	maxImageWidth int
}

// prepare reads the upload, detects its real type from the content and
// downscales raster images wider than maxImageWidth
func (p evidencePolicy) prepare(upload fee.EvidenceUpload) (*preparedEvidence, error) {
	if upload.Body == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment evidence file is required")
	}
	maxSize := p.maxSize
	if maxSize <= 0 {
		maxSize = defaultMaxEvidenceSize
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence upload: %w", err)
	}
	if len(data) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment evidence file is empty")
	}
	if int64(len(data)) > maxSize {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Payment evidence exceeds the %d byte limit", maxSize))
	}

	detected := mimetype.Detect(data)
	if !mimetype.EqualsAny(detected.String(), allowedEvidenceTypes...) {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Payment evidence of type %s is not accepted", detected.String()))
	}

	prepared := &preparedEvidence{
		Data:        data,
		ContentType: detected.String(),
		Extension:   detected.Extension(),
	}
	if p.maxImageWidth > 0 && (detected.Is("image/jpeg") || detected.Is("image/png")) {
		if err := p.downscale(prepared); err != nil {
			return nil, err
		}
	}
	return prepared, nil
}

func (p evidencePolicy) downscale(e *preparedEvidence) error {
	img, err := imaging.Decode(bytes.NewReader(e.Data), imaging.AutoOrientation(true))
	if err != nil {
		return shared.NewDomainError(shared.CodeValidation, "Payment evidence image could not be decoded")
	}
	if img.Bounds().Dx() <= p.maxImageWidth {
		return nil
	}

	resized := imaging.Resize(img, p.maxImageWidth, 0, imaging.Lanczos)
	format := imaging.JPEG
	if e.ContentType == "image/png" {
		format = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("failed to encode resized evidence: %w", err)
	}
	e.Data = buf.Bytes()
	return nil
}

// evidenceKey builds <prefix>/<branch>/<voucher>/<date>-<uuid>-<name><ext>
func evidenceKey(prefix string, upload fee.EvidenceUpload, ext string, now time.Time) string {
	name := strings.TrimSuffix(path.Base(upload.FileName), path.Ext(upload.FileName))
	name = strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		name = "evidence"
	}
	file := fmt.Sprintf("%s-%s-%s%s", now.UTC().Format("20060102"), uuid.NewString(), name, ext)
	return path.Join(prefix, upload.BranchID.String(), upload.VoucherID.String(), file)
}

// publicURL joins the configured base URL and the storage key
func publicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}

package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/kernel-upgrade/internal/domain/kernel"
	"github.com/oshokin/kernel-upgrade/internal/logger"

	// Ensure SHA256 available for download verification.
	_ "crypto/sha256"
)

const (
	// packageFileMode is the permission applied to downloaded packages.
	packageFileMode os.FileMode = 0o644

	// checksumHexLength is the length of a hex-encoded SHA-256 digest; the
	// mirror manifest mixes digest families and only these lines are used.
	checksumHexLength = 64

	// progressThrottle limits progress bar redraw frequency.
	progressThrottle = 100 * time.Millisecond
)

var errBadHTTPStatus = errors.New("unexpected http status")

// Fetcher downloads the package set to local storage.
type Fetcher struct {
	// client performs all mirror requests.
	client *http.Client
}

// New creates a fetcher using the default HTTP client.
func New() *Fetcher {
	return &Fetcher{
		client: http.DefaultClient,
	}
}

// Fetch downloads every package once, in order, and returns a StepResult per
// package. A failed download never aborts the remaining ones; aggregation of
// failures is the caller's job. When the mirror's checksum manifest is
// available, each written file is verified against it.
func (f *Fetcher) Fetch(ctx context.Context, checksumsURL string, specs []kernel.PackageSpec) []kernel.StepResult {
	checksums, err := f.fetchChecksums(ctx, checksumsURL)
	if err != nil {
		logger.Warnf(ctx, "Checksum manifest unavailable, downloads will not be verified: %v", err)

		checksums = map[string][]byte{}
	}

	results := make([]kernel.StepResult, 0, len(specs))

	for _, spec := range specs {
		result := kernel.StepResult{
			Package: spec.Name,
			Stage:   kernel.StageDownload,
		}

		if err = f.download(ctx, spec, checksums[spec.Name]); err != nil {
			downloadErr := &kernel.DownloadError{Package: spec.Name, Err: err}
			result.Message = downloadErr.Error()

			logger.ErrorKV(ctx, "Download failed", "package", spec.Name, "error", err)
		} else {
			result.Succeeded = true
			result.Message = "saved to " + spec.LocalPath

			logger.InfoKV(ctx, "Downloaded package", "package", spec.Name, "path", spec.LocalPath)
		}

		results = append(results, result)
	}

	return results
}

// download streams one package from the mirror into its local path.
// The write is atomic: go-update stages the data in a sibling file and only
// renames it over the target after the checksum (when known) matches.
func (f *Fetcher) download(ctx context.Context, spec kernel.PackageSpec, checksum []byte) error {
	logger.Debugf(ctx, "Download Start - (%s)", spec.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.SourceURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", spec.SourceURL, response.Status, errBadHTTPStatus)
	}

	// go-update renames the previous target aside, so the target must exist.
	if _, err = os.Stat(spec.LocalPath); err != nil && os.IsNotExist(err) {
		var placeholder *os.File

		placeholder, err = os.Create(spec.LocalPath)
		if err != nil {
			return err
		}

		if err = placeholder.Close(); err != nil {
			return err
		}
	}

	bar := progressbar.NewOptions64(response.ContentLength,
		progressbar.OptionSetDescription(spec.Name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(progressThrottle),
		progressbar.OptionClearOnFinish(),
	)

	options := goupdate.Options{
		TargetPath: spec.LocalPath,
		TargetMode: packageFileMode,
		Checksum:   checksum,
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(io.TeeReader(response.Body, bar), options); err != nil {
		return err
	}

	_ = bar.Finish()

	oldFileName := spec.LocalPath + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.Debugf(ctx, "Download End - (%s)", spec.Name)

	return nil
}

// fetchChecksums retrieves and parses the mirror's checksum manifest.
// The manifest is plain text with "<hex digest>  <file name>" lines; only
// SHA-256 entries are kept.
func (f *Fetcher) fetchChecksums(ctx context.Context, checksumsURL string) (map[string][]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumsURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", checksumsURL, response.Status, errBadHTTPStatus)
	}

	checksums := make(map[string][]byte)

	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		fields := bytes.Fields(scanner.Bytes())
		if len(fields) != 2 || len(fields[0]) != checksumHexLength {
			continue
		}

		digest, decodeErr := hex.DecodeString(string(fields[0]))
		if decodeErr != nil {
			continue
		}

		checksums[string(fields[1])] = digest
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return checksums, nil
}

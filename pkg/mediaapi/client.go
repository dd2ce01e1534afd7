// Package mediaapi resolves asset metadata and pixel data from the media
// service.
//
// Metadata lookups go through a byte Store keyed by media id; image
// downloads go through the decoded-image cache. Both caches are append-only
// for the process lifetime, so a media id fetched once is never fetched
// again, across runs. Concurrent misses for the same id may race and fetch
// twice; the last write wins and both callers observe identical snapshots.
package mediaapi

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	// Media occasionally arrives in formats outside the stdlib set.
	_ "golang.org/x/image/webp"

	"github.com/cmwn/skramble/pkg/cache"
	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/httputil"
	"github.com/cmwn/skramble/pkg/observability"
	"github.com/cmwn/skramble/pkg/skribble"
)

// Metadata is the media service's record for one asset, served by the
// /a/{media_id} endpoint.
type Metadata struct {
	MediaID    string `json:"media_id"`
	CanOverlap bool   `json:"can_overlap"`
	Check      Check  `json:"check"`
	AssetType  string `json:"asset_type"`
	MimeType   string `json:"mime_type"`
}

// Check declares the integrity digest of the raw media.
type Check struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Config carries the client's collaborators and policy flags.
type Config struct {
	BaseURL    string // media API base, e.g. https://media.example.com/
	Auth       *httputil.BasicAuth
	HTTPClient *http.Client
	Meta       cache.Store   // metadata store; required
	Images     *cache.Images // decoded-image cache; required
	VerifyHash bool          // compare downloaded bytes against Check
	VerifyMIME bool          // compare response Content-Type against MimeType
	Logger     *log.Logger
}

// Client fetches asset metadata and raw media.
type Client struct {
	baseURL    string
	auth       *httputil.BasicAuth
	http       *http.Client
	meta       cache.Store
	images     *cache.Images
	verifyHash bool
	verifyMIME bool
	logger     *log.Logger
}

// New creates a media API client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httputil.NewClient(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		auth:       cfg.Auth,
		http:       httpClient,
		meta:       cfg.Meta,
		images:     cfg.Images,
		verifyHash: cfg.VerifyHash,
		verifyMIME: cfg.VerifyMIME,
		logger:     logger,
	}
}

// ResolveMetadata fills the asset's overlap policy, integrity check, and
// classification from the metadata store or the media API. Any fetch failure
// is fatal for the run.
func (c *Client) ResolveMetadata(ctx context.Context, asset *skribble.Asset) error {
	if asset.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "asset has no media id")
	}

	if data, hit, _ := c.meta.Get(ctx, asset.ID); hit {
		c.logger.Debug("metadata cache hit", "media_id", asset.ID)
		observability.Cache().OnHit(ctx, "metadata", asset.ID)
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err == nil {
			fillAsset(asset, meta)
			return nil
		}
		// Corrupt entry: fall through to a fresh fetch that overwrites it.
	}
	c.logger.Debug("metadata cache miss", "media_id", asset.ID)
	observability.Cache().OnMiss(ctx, "metadata", asset.ID)

	var meta Metadata
	url := c.baseURL + "a/" + asset.ID
	if err := httputil.GetJSON(ctx, c.http, url, c.auth, &meta); err != nil {
		return errors.Wrap(errors.ErrCodeRemoteFetch, err, "fetching metadata for %s", asset.ID)
	}
	if meta.MediaID != "" && meta.MediaID != asset.ID {
		return errors.New(errors.ErrCodeRemoteFetch, "metadata id %s does not match asset %s", meta.MediaID, asset.ID)
	}

	if data, err := json.Marshal(meta); err == nil {
		_ = c.meta.Set(ctx, asset.ID, data)
	}
	fillAsset(asset, meta)
	return nil
}

// ResolveImage attaches a decoded pixel buffer and its native dimensions to
// the asset, downloading and validating the raw media on a cache miss.
func (c *Client) ResolveImage(ctx context.Context, asset *skribble.Asset) error {
	if asset.ID == "" || asset.Src == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cannot download an asset without a media id and src")
	}

	if img, hit := c.images.Get(asset.ID); hit {
		c.logger.Debug("image cache hit", "media_id", asset.ID)
		observability.Cache().OnHit(ctx, "image", asset.ID)
		attach(asset, img)
		return nil
	}
	c.logger.Debug("image cache miss", "media_id", asset.ID)
	observability.Cache().OnMiss(ctx, "image", asset.ID)

	raw, contentType, err := httputil.GetBytes(ctx, c.http, asset.Src, c.auth)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRemoteFetch, err, "downloading media for %s", asset.ID)
	}

	if c.verifyMIME && asset.MIME != "" && contentType != asset.MIME {
		return errors.New(errors.ErrCodeIntegrity,
			"media %s served as %s, expected %s", asset.ID, contentType, asset.MIME)
	}
	if c.verifyHash && asset.HashValue != "" {
		if err := verifyDigest(asset.HashType, asset.HashValue, raw); err != nil {
			return errors.Wrap(errors.ErrCodeIntegrity, err, "validating media for %s", asset.ID)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(errors.ErrCodeRemoteFetch, err, "decoding media for %s", asset.ID)
	}

	c.images.Set(asset.ID, img)
	attach(asset, imaging.Clone(img))
	c.logger.Debug("image downloaded", "media_id", asset.ID,
		"width", asset.Width, "height", asset.Height)
	return nil
}

// fillAsset applies metadata over the asset's defaults. Partial records
// leave the defaults in place: overlap stays forbidden and the digest check
// stays on md5 with no expected value.
func fillAsset(asset *skribble.Asset, meta Metadata) {
	asset.CanOverlap = meta.CanOverlap
	if meta.Check.Type != "" {
		asset.HashType = meta.Check.Type
	}
	asset.HashValue = meta.Check.Value
	asset.Type = meta.AssetType
	asset.MIME = meta.MimeType
}

func attach(asset *skribble.Asset, img *image.NRGBA) {
	asset.Img = img
	bounds := img.Bounds()
	asset.Width = bounds.Dx()
	asset.Height = bounds.Dy()
}

func verifyDigest(hashType, expected string, raw []byte) error {
	var actual string
	switch hashType {
	case skribble.HashSHA1:
		sum := sha1.Sum(raw)
		actual = hex.EncodeToString(sum[:])
	case skribble.HashMD5, "":
		sum := md5.Sum(raw)
		actual = hex.EncodeToString(sum[:])
	default:
		return fmt.Errorf("unsupported checksum type %q", hashType)
	}
	if actual != expected {
		return fmt.Errorf("digest mismatch: expected %s, calculated %s", expected, actual)
	}
	return nil
}

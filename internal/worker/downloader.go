package worker

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dhansen/plenarycrawl/internal/fetcher"
	"github.com/dhansen/plenarycrawl/internal/metadata"
	"github.com/dhansen/plenarycrawl/internal/store"
	"github.com/dhansen/plenarycrawl/pkg/failure"
	"github.com/dhansen/plenarycrawl/pkg/fileutil"
	"github.com/dhansen/plenarycrawl/pkg/hashutil"
	"github.com/dhansen/plenarycrawl/pkg/queue"
)

type DownloaderConfig struct {
	DataDir              string
	Extension            string
	UserAgent            string
	RequestTimeoutFactor time.Duration
	StopWaitSecs         time.Duration
	SleepOnEmpty         time.Duration
	SleepOnError         time.Duration
}

// Downloader consumes one token and one minted URL id per unit of work,
// GETs it, and on success persists both the file and the Document row.
// Multiple Downloader instances run concurrently, all sharing tokenQ and
// urlQ — any idle instance that can't get a URL must return its token
// rather than hold it.
type Downloader struct {
	Base

	tokenQ   *queue.Queue[Token]
	urlQ     *queue.Queue[MintedURL]
	requests *store.RequestStore
	docs     *store.DocumentStore
	fetch    fetcher.Fetcher
	cfg      DownloaderConfig
	recorder *metadata.Recorder
}

func NewDownloader(
	name string,
	shutdown *ShutdownFlag,
	tokenQ *queue.Queue[Token],
	urlQ *queue.Queue[MintedURL],
	requests *store.RequestStore,
	docs *store.DocumentStore,
	fetch fetcher.Fetcher,
	cfg DownloaderConfig,
	recorder *metadata.Recorder,
) *Downloader {
	return &Downloader{
		Base:     NewBase(name, shutdown),
		tokenQ:   tokenQ,
		urlQ:     urlQ,
		requests: requests,
		docs:     docs,
		fetch:    fetch,
		cfg:      cfg,
		recorder: recorder.WithComponent(name),
	}
}

func (d *Downloader) Run(ctx context.Context) error {
	d.MarkReady()

	for {
		if d.Shutdown.IsSet() {
			return nil
		}

		tok, ok, err := d.tokenQ.TryGet(ctx, DefaultPollingTimeout)
		if err != nil {
			return nil
		}
		if !ok {
			continue
		}

		item, ok, err := d.urlQ.TryGet(ctx, DefaultPollingTimeout)
		if err != nil {
			return nil
		}
		if !ok {
			// Token discipline: rate budget must not be silently consumed
			// while there is nothing to fetch.
			d.tokenQ.TryPut(ctx, tok, DefaultPollingTimeout)
			sleepUnlessShutdown(ctx, d.Shutdown, d.cfg.SleepOnEmpty)
			continue
		}

		d.downloadOne(ctx, item)
	}
}

func (d *Downloader) downloadOne(ctx context.Context, item MintedURL) {
	get, fetchErr := d.fetch.Get(ctx, item.URL, d.cfg.UserAgent)
	now := time.Now()

	status, finalURL := d.synthesizeOutcome(get, fetchErr, item.URL)

	if _, err := d.requests.LogRequest(ctx, item.URLID, now, item.URL, finalURL, status, nil); err != nil {
		d.recordDBError(ctx, "LogRequest", err)
	}

	if status != 200 {
		d.recorder.RecordEvent(ctx, "document_not_downloaded",
			metadata.NewAttr(metadata.AttrURL, item.URL),
			metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(status)),
		)
		if fetchErr != nil {
			sleepUnlessShutdown(ctx, d.Shutdown, d.cfg.SleepOnError)
		}
		return
	}

	filename := uuid.NewString()
	contentHash, _ := hashutil.HashBytes(get.Body, hashutil.HashAlgoBLAKE3)
	path := filepath.Join(d.cfg.DataDir, filename+d.cfg.Extension)

	if ferr := fileutil.EnsureDir(d.cfg.DataDir); ferr != nil {
		d.recordFileError(ctx, ferr)
		return
	}
	if err := fileutil.WriteFile(path, get.Body); err != nil {
		d.recordFileError(ctx, err)
		return
	}

	documentID, err := d.docs.InsertDocument(ctx, item.URLID, filename, path, contentHash)
	if err != nil {
		d.recordDBError(ctx, "InsertDocument", err)
		return
	}

	if _, err := d.requests.LogRequest(ctx, item.URLID, time.Now(), item.URL, finalURL, status, &documentID); err != nil {
		d.recordDBError(ctx, "LogRequest(bind document)", err)
		return
	}

	d.recorder.RecordEvent(ctx, "document_downloaded",
		metadata.NewAttr(metadata.AttrURL, item.URL),
		metadata.NewAttr(metadata.AttrDocumentID, strconv.FormatInt(documentID, 10)),
		metadata.NewAttr(metadata.AttrFilename, filename),
	)
}

// synthesizeOutcome maps a transport-level failure onto the synthetic
// status codes §4.4 specifies, so the Request log always carries a
// number even when the server never answered: 408 for a read timeout,
// 460 for any other transport error.
func (d *Downloader) synthesizeOutcome(get fetcher.GetResult, fetchErr failure.ClassifiedError, requestedURL string) (status int, finalURL string) {
	if fetchErr == nil {
		return get.StatusCode, get.FinalURL
	}
	return synthesizeFetchStatus(fetchErr), requestedURL
}

func (d *Downloader) recordDBError(ctx context.Context, op string, err error) {
	d.recorder.RecordError(ctx, metadata.ErrorRecord{
		Component: d.Name(), Operation: op,
		Cause: metadata.CauseDatabaseFailure, Message: err.Error(), ObservedAt: time.Now(),
	})
}

func (d *Downloader) recordFileError(ctx context.Context, err failure.ClassifiedError) {
	d.recorder.RecordError(ctx, metadata.ErrorRecord{
		Component: d.Name(), Operation: "writeFile",
		Cause: metadata.CauseStorageFailure, Message: err.Error(), ObservedAt: time.Now(),
	})
}

package model

import "time"

// File is the metadata record for an uploaded file. Path is the storage key of
// the bytes and stays server-side.
type File struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	Path          string    `json:"-"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	DownloadCount int64     `json:"download_count"`
	AccessGranted bool      `json:"access_granted"`
	OwnerID       *int64    `json:"owner_id"`
	OwnerName     string    `json:"owner,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FileSummary is the listing projection of a File.
type FileSummary struct {
	ID            int64  `json:"id"`
	Filename      string `json:"filename"`
	DownloadCount int64  `json:"download_count"`
	AccessGranted bool   `json:"access_granted"`
	Owner         string `json:"owner"`
}

// Summary projects f for listings.
func (f File) Summary() FileSummary {
	return FileSummary{
		ID:            f.ID,
		Filename:      f.Filename,
		DownloadCount: f.DownloadCount,
		AccessGranted: f.AccessGranted,
		Owner:         f.OwnerName,
	}
}

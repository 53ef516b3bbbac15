package api

import (
	"context"
	"strconv"
)

// VehicleDocuments lists documents attached to a vehicle.
func (c *Client) VehicleDocuments(ctx context.Context, vehicleID int64) ([]Document, error) {
	var out []Document
	if err := c.get(ctx, "/api/documents/vehicle/"+strconv.FormatInt(vehicleID, 10), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DocumentDownloadURL resolves the absolute download URL for a document.
// The caller opens it with its own transfer mechanism; upload and download
// streaming are outside this client.
func (c *Client) DocumentDownloadURL(id int64) string {
	u := *c.base
	u.Path = "/api/documents/download/" + strconv.FormatInt(id, 10)
	return u.String()
}

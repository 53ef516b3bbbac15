package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

// CreateRepair schedules a new repair.
func (c *Client) CreateRepair(ctx context.Context, input RepairInput) (*Repair, error) {
	if input.VehicleID == 0 {
		return nil, errors.New("api: repair requires vehicleId")
	}

	var out Repair
	if err := c.do(ctx, http.MethodPost, "/api/repairs", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRepair replaces the stored repair with the given input.
func (c *Client) UpdateRepair(ctx context.Context, id int64, input RepairInput) (*Repair, error) {
	var out Repair
	if err := c.do(ctx, http.MethodPut, "/api/repairs/"+strconv.FormatInt(id, 10), input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRepair removes a repair. Deleting an already-removed repair is not
// an error; the backend's 404 is collapsed to success.
func (c *Client) DeleteRepair(ctx context.Context, id int64) error {
	err := c.do(ctx, http.MethodDelete, "/api/repairs/"+strconv.FormatInt(id, 10), nil, nil)

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// RepairsByVehicle lists repairs scheduled for one vehicle.
func (c *Client) RepairsByVehicle(ctx context.Context, vehicleID int64) ([]Repair, error) {
	var out []Repair
	if err := c.get(ctx, "/api/repairs/vehicle/"+strconv.FormatInt(vehicleID, 10), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RepairsGroupedByWeek returns the schedule grouped into calendar weeks,
// as rendered by the planner table and calendar views.
func (c *Client) RepairsGroupedByWeek(ctx context.Context) ([]RepairWeek, error) {
	var out []RepairWeek
	if err := c.get(ctx, "/api/repairs/grouped-by-week", &out); err != nil {
		return nil, err
	}
	return out, nil
}

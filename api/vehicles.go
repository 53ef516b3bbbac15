package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// PositionFilter selects which vehicle positions to fetch. Use the
// predefined filters or [GroupFilter] for a specific vehicle group.
type PositionFilter string

const (
	// PositionsAll fetches every tracked vehicle.
	PositionsAll PositionFilter = "all"
	// PositionsTrucks fetches tractor units only.
	PositionsTrucks PositionFilter = "trucks"
	// PositionsTrailers fetches trailers only.
	PositionsTrailers PositionFilter = "trailers"
)

// GroupFilter builds a filter for a single vehicle group.
func GroupFilter(groupID int64) PositionFilter {
	return PositionFilter("group:" + strconv.FormatInt(groupID, 10))
}

// Vehicles lists all fleet vehicles.
func (c *Client) Vehicles(ctx context.Context) ([]Vehicle, error) {
	var out []Vehicle
	if err := c.get(ctx, "/api/vehicles/get", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Vehicle fetches a single vehicle by ID.
func (c *Client) Vehicle(ctx context.Context, id int64) (*Vehicle, error) {
	var out Vehicle
	if err := c.get(ctx, "/api/vehicles/get/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VehicleGroups lists the configured vehicle groups.
func (c *Client) VehicleGroups(ctx context.Context) ([]VehicleGroup, error) {
	var out []VehicleGroup
	if err := c.get(ctx, "/api/vehicle-groups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Positions fetches live positions for the selected filter.
func (c *Client) Positions(ctx context.Context, filter PositionFilter) ([]Position, error) {
	path, err := positionsPath(filter)
	if err != nil {
		return nil, err
	}

	var out []Position
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PositionCountries aggregates current vehicle presence per country.
func (c *Client) PositionCountries(ctx context.Context) ([]CountryCount, error) {
	var out []CountryCount
	if err := c.get(ctx, "/api/positions/countries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Places lists repair locations.
func (c *Client) Places(ctx context.Context) ([]Place, error) {
	var out []Place
	if err := c.get(ctx, "/api/places", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func positionsPath(filter PositionFilter) (string, error) {
	switch filter {
	case "", PositionsAll:
		return "/api/positions/get", nil
	case PositionsTrucks:
		return "/api/positions/trucks", nil
	case PositionsTrailers:
		return "/api/positions/trailers", nil
	}

	if id, ok := strings.CutPrefix(string(filter), "group:"); ok {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return "", fmt.Errorf("api: invalid group filter %q", filter)
		}
		return "/api/positions/group/" + id, nil
	}
	return "", fmt.Errorf("api: unknown position filter %q", filter)
}

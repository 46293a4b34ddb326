package ovsdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/ovn-org/libovsdb/client"
	"github.com/ovn-org/libovsdb/model"
)

const (
	databaseName        = "Open_vSwitch"
	bridgeTableName     = "Bridge"
	controllerTableName = "Controller"
	portTableName       = "Port"
	DefaultEndpoint     = "tcp:127.0.0.1:6640"
)

// ControllerStatus is a controller target and whether the bridge is
// connected to it.
type ControllerStatus struct {
	Target    string
	Connected bool
}

// BridgeStatus is what the switch daemon reports for one bridge
type BridgeStatus struct {
	Name        string
	FailMode    string
	Protocols   []string
	Controllers []ControllerStatus
	Ports       []string
}

// Inspector reads bridge state from ovsdb-server through the manager
// listener. It never writes.
type Inspector struct {
	client client.Client
}

// Connect opens a monitored connection to endpoint, e.g. tcp:127.0.0.1:6640.
func Connect(ctx context.Context, endpoint string) (*Inspector, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	dbModel, err := model.NewClientDBModel(databaseName, map[string]model.Model{
		bridgeTableName:     &Bridge{},
		controllerTableName: &Controller{},
		portTableName:       &Port{},
	})
	if err != nil {
		return nil, err
	}

	ovsClient, err := client.NewOVSDBClient(dbModel, client.WithEndpoint(endpoint))
	if err != nil {
		return nil, err
	}
	if err := ovsClient.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	if _, err := ovsClient.MonitorAll(ctx); err != nil {
		ovsClient.Disconnect()
		return nil, fmt.Errorf("monitor %s: %w", databaseName, err)
	}

	return &Inspector{client: ovsClient}, nil
}

// Snapshot returns every bridge known to the database, sorted by name.
func (i *Inspector) Snapshot(ctx context.Context) ([]BridgeStatus, error) {
	var bridges []Bridge
	if err := i.client.List(ctx, &bridges); err != nil {
		return nil, fmt.Errorf("list bridges: %w", err)
	}
	var controllers []Controller
	if err := i.client.List(ctx, &controllers); err != nil {
		return nil, fmt.Errorf("list controllers: %w", err)
	}
	var ports []Port
	if err := i.client.List(ctx, &ports); err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}

	return buildSnapshot(bridges, controllers, ports), nil
}

func (i *Inspector) Close() {
	i.client.Disconnect()
}

// buildSnapshot resolves the UUID references of each bridge
func buildSnapshot(bridges []Bridge, controllers []Controller, ports []Port) []BridgeStatus {
	controllerByUUID := make(map[string]Controller, len(controllers))
	for _, c := range controllers {
		controllerByUUID[c.UUID] = c
	}
	portByUUID := make(map[string]Port, len(ports))
	for _, p := range ports {
		portByUUID[p.UUID] = p
	}

	statuses := make([]BridgeStatus, 0, len(bridges))
	for _, br := range bridges {
		status := BridgeStatus{
			Name:      br.Name,
			Protocols: append([]string(nil), br.Protocols...),
		}
		if br.FailMode != nil {
			status.FailMode = *br.FailMode
		}

		for _, uuid := range br.Controller {
			if c, ok := controllerByUUID[uuid]; ok {
				status.Controllers = append(status.Controllers, ControllerStatus{Target: c.Target, Connected: c.IsConnected})
			}
		}
		sort.Slice(status.Controllers, func(a, b int) bool {
			return status.Controllers[a].Target < status.Controllers[b].Target
		})

		for _, uuid := range br.Ports {
			// the bridge's internal port shares its name
			if p, ok := portByUUID[uuid]; ok && p.Name != br.Name {
				status.Ports = append(status.Ports, p.Name)
			}
		}
		sort.Strings(status.Ports)

		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(a, b int) bool {
		return statuses[a].Name < statuses[b].Name
	})
	return statuses
}

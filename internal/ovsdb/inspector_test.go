package ovsdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSnapshot(t *testing.T) {
	secure := "secure"
	bridges := []Bridge{
		{UUID: "b2", Name: "s2", Controller: []string{"c2"}, Ports: []string{"p3", "p4"}, Protocols: []string{"OpenFlow13"}, FailMode: &secure},
		{UUID: "b1", Name: "s1", Controller: []string{"c1", "gone"}, Ports: []string{"p1", "p2", "p5"}, Protocols: []string{"OpenFlow13"}, FailMode: &secure},
		{UUID: "b3", Name: "s3"},
	}
	controllers := []Controller{
		{UUID: "c1", Target: "tcp:10.0.0.5:6633", IsConnected: true},
		{UUID: "c2", Target: "tcp:10.0.0.5:6633"},
	}
	ports := []Port{
		{UUID: "p1", Name: "s1"},
		{UUID: "p2", Name: "s1-eth1"},
		{UUID: "p3", Name: "s2-eth1"},
		{UUID: "p4", Name: "s2"},
		{UUID: "p5", Name: "eth1"},
	}

	got := buildSnapshot(bridges, controllers, ports)

	assert.Equal(t, []BridgeStatus{
		{
			Name:        "s1",
			FailMode:    "secure",
			Protocols:   []string{"OpenFlow13"},
			Controllers: []ControllerStatus{{Target: "tcp:10.0.0.5:6633", Connected: true}},
			Ports:       []string{"eth1", "s1-eth1"},
		},
		{
			Name:        "s2",
			FailMode:    "secure",
			Protocols:   []string{"OpenFlow13"},
			Controllers: []ControllerStatus{{Target: "tcp:10.0.0.5:6633"}},
			Ports:       []string{"s2-eth1"},
		},
		{
			Name: "s3",
		},
	}, got)
}

func TestBuildSnapshotEmpty(t *testing.T) {
	assert.Empty(t, buildSnapshot(nil, nil, nil))
}

package ovsdb

// Models of the Open_vSwitch tables the inspector reads. Only the columns
// it renders are mapped.

type Bridge struct {
	UUID       string   `ovsdb:"_uuid"` // _uuid tag is mandatory
	Name       string   `ovsdb:"name"`
	Controller []string `ovsdb:"controller"`
	Ports      []string `ovsdb:"ports"`
	Protocols  []string `ovsdb:"protocols"`
	FailMode   *string  `ovsdb:"fail_mode"`
}

type Controller struct {
	UUID        string `ovsdb:"_uuid"` // _uuid tag is mandatory
	Target      string `ovsdb:"target"`
	IsConnected bool   `ovsdb:"is_connected"`
}

type Port struct {
	UUID string `ovsdb:"_uuid"` // _uuid tag is mandatory
	Name string `ovsdb:"name"`
}

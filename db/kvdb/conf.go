package kvdb

type Conf struct {
	Type string `json:"type"` // redis, sqlite, memory
	Host string `json:"host"`
	Port int    `json:"port"`
	PW   string `json:"pw"`
	DB   int    `json:"db"`   // optional db number e.g. redis
	Path string `json:"path"` // database file for embedded backends e.g. sqlite
}

package all

import (
	// Import all the store drivers so they register themselves
	_ "github.com/darianmavgo/growlog/store/mysql"
	_ "github.com/darianmavgo/growlog/store/postgres"
	_ "github.com/darianmavgo/growlog/store/sqlite"
)

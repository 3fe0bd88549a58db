// Package checks registers every built-in probe with apidown.
//
// Importing it makes all supported URL schemes usable with apidown.CheckURL
// and apidown.TrustURL. To link fewer drivers, import only the sub-packages
// you need:
//
//	import _ "github.com/BigKAA/apidown/apidown/checks/pgcheck"
//	import _ "github.com/BigKAA/apidown/apidown/checks/redischeck"
//
// http:// and https:// are handled by apidown itself and need no import.
package checks

import (
	_ "github.com/BigKAA/apidown/apidown/checks/amqpcheck"
	_ "github.com/BigKAA/apidown/apidown/checks/grpccheck"
	_ "github.com/BigKAA/apidown/apidown/checks/kafkacheck"
	_ "github.com/BigKAA/apidown/apidown/checks/ldapcheck"
	_ "github.com/BigKAA/apidown/apidown/checks/mysqlcheck"
	_ "github.com/BigKAA/apidown/apidown/checks/pgcheck"
	_ "github.com/BigKAA/apidown/apidown/checks/redischeck"
	_ "github.com/BigKAA/apidown/apidown/checks/tcpcheck"
)

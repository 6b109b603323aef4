/*
Package hostlink implements host.Host for a live host application reached
over socket.io.

Every operation is one request/reply exchange. The client emits

	compstash:call  {"id": "<uuid>", "method": "describe", "args": {...}}

and the host answers on the event "compstash:reply:<id>" with either
{"result": ...} or {"error": {"code": "...", "message": "..."}}. The
methods are describe, create, destroy, set_position, set_parameter and
connect.

Dispatch serves the same protocol against any host.Host, which is how the
in-memory host is exposed in tests.
*/
package hostlink

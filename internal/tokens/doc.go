/*
Package tokens resolves `<token>` placeholders in path strings.

A token table maps a token name either to a literal string or to a
per-platform mapping keyed by lower-cased operating system name
("windows", "linux", "darwin"). Values may themselves contain tokens:

	{
	    "root":  {"windows": "C:/proj", "linux": "/srv/proj"},
	    "data":  "<root>/data",
	    "cache": "<data>/cache"
	}

Resolution splits the input on path separators and replaces every segment
that is exactly one token. A segment that merely contains angle brackets
("v<2>") is left alone. Unknown tokens, missing platform entries and token
cycles are reported as *faults.TokenError.
*/
package tokens

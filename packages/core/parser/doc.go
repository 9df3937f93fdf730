// Package parser reads shapespec suite files.
//
// A suite file is YAML (.shape.yaml, .shape.yml) or JSON (.shape.json) and
// declares one suite at the top level or several under a "suites" list:
//
//	name: player profile
//	target: ./fixtures/player.json
//	select: data.player
//	exhaustive: false
//	tests:
//	  id: number
//	  name: {type: string}
//	  tags: string[]
//
// Top-level target, data, select, class, schema and exhaustive act as
// defaults for every suite of the list. Test nodes are kept as decoded;
// expressions such as {{uuid()}} are resolved by the runner.
package parser

// Package chart splits a model reply around its optional embedded chart
// block.
//
// The block grammar is literal-start, JSON value, literal-end:
//
//	leading text !!!CHART_START!!! {"type":"bar",...} !!!CHART_END!!! trailing text
//
// Every stage tolerates absence or malformation. A missing sentinel leaves
// the whole reply as leading text; unparsable JSON drops the payload but
// keeps both text parts. Split never fails.
package chart

// Package shadergen compiles a shader-kind function into WGSL-flavored
// shader text. It walks the same execution graph hostgen walks (spec
// §4.8: "the generator is effectively the same visitor with a
// different backend string grammar"), but every expression is compiled
// inline as shader-language syntax instead of a runtime call, since
// there is no interp.Runtime on a GPU to delegate to.
package shadergen

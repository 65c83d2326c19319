// Package extract owns the execution of a single extraction task: the
// contract for invoking the external vision-language model, the retry
// policy applied around that call, and the worker that drives one task
// from PROCESSING to a terminal state.
package extract

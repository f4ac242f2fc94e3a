// Command compositor renders timeline projects: single frames to PNG, whole
// timelines to video through ffmpeg or to PNG sequences. It also inspects,
// patches and validates project documents.
package main

// Package java adapts the Java XML tools (jing and trang) to the validator
// and converter ports. The tools run as allow-listed processes; nothing is
// linked in-process.
//
// A tools.yaml file tells the adapter where the runtime and the jars are:
//
//	java: /usr/bin/java
//	tools:
//	  - name: jing
//	    jar: lib/jing.jar
//	  - name: trang
//	    jar: lib/trang.jar
package java

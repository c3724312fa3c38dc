package config

// ExampleYAML is the built-in example configuration: a two-stage
// build-then-run campaign against a VMware guest. `vmgrader run --example`
// runs it and `vmgrader config example` prints it.
const ExampleYAML = `host:
  vmx_path: /var/vmgrader/vms/grader/grader.vmx
  vmchecker_root: /var/vmgrader
  jobs_path: jobs
  scripts_path: scripts

guest:
  username: grader
  password: grader
  shell: /bin/bash
  transport: tools
  root_path:
    native_style: /home/grader/
    shell_style: /home/grader/
    separator: /

tests:
  - input: [submission.zip, tests.zip]
    script: [build.sh]
    output: [build.log]
    timeout: 120
  - input: []
    script: [run.sh]
    output: [run.log, results.xml]
    timeout: 300

km_enable: false
km_listen_addr: 0.0.0.0:6666
`

// Example returns the parsed built-in example configuration.
func Example() (*Config, error) {
	return LoadYAML([]byte(ExampleYAML))
}

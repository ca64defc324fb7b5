/*
Package affinity reports which logical CPUs and NUMA memory nodes the calling
thread is allowed to use, rendering them as compact range lists such as
“0,2-5,7”.

Logically, [List] and [Set] are equivalent, as they both represent sets of
CPU or NUMA node numbers. The difference lies in their internal
representations, mirroring the representation forms in the Linux syscalls and
procfs pseudo files.

  - [List] internally stores numbers as ranges, such as 1-4, 8-15.
  - [Set] internally stores numbers as bits in a bytestream, such as (hex)
    ff1e; this is the layout of the kernel's cpu_set_t and nodemask_t.

[Encode] renders any [Membership] over a bounded index space as text. A run of
exactly two consecutive members is rendered as two single numbers “i,i+1”
instead of a range “i-i+1”, following the util-linux cpuset conventions, so
that reports stay comparable with historical output. [NewList] decodes such
text again.

[Affinity] and [ThreadMemPolicy] query the scheduler affinity and the memory
policy of tasks; [Thread] bundles both as a [Querier] for the calling OS
thread.
*/
package affinity
